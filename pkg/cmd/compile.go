package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/thelink2012/gta3sc-sub000/internal/driver"
	"github.com/thelink2012/gta3sc-sub000/internal/driver/render"
	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] main_script",
	Short: "compile a script into a bytecode image.",
	Long: `Compile a main script file, along with every subscript and mission file it
	 requires, into a single linked bytecode image.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		output := GetString(cmd, "output")

		collector := diag.NewCollector()
		drv := driver.New(buildConfig(cmd), diag.NewHandler(collector.Emit))
		defer drv.Close()

		result, err := drv.Compile(args[0])
		render.New(os.Stderr, drv.SourceManager()).RenderAll(collector.Diagnostics())
		if err != nil {
			log.Errorln(err)
			os.Exit(1)
		}

		if err := os.WriteFile(output, result.Image, 0o644); err != nil {
			log.Errorln(err)
			os.Exit(1)
		}
		log.Debugf("wrote %d bytes to %s", len(result.Image), output)
	},
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringP("output", "o", "main.scm", "specify output file.")
}
