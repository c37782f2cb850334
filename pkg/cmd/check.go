package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/thelink2012/gta3sc-sub000/internal/driver"
	"github.com/thelink2012/gta3sc-sub000/internal/driver/render"
	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] main_script",
	Short: "parse and analyze a script without generating code.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)

		collector := diag.NewCollector()
		drv := driver.New(buildConfig(cmd), diag.NewHandler(collector.Emit))
		defer drv.Close()

		_, err := drv.Check(args[0])
		render.New(os.Stderr, drv.SourceManager()).RenderAll(collector.Diagnostics())
		if err != nil {
			log.Errorln(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
