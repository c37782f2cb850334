package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/thelink2012/gta3sc-sub000/internal/driver"
	"github.com/thelink2012/gta3sc-sub000/internal/driver/dump"
	"github.com/thelink2012/gta3sc-sub000/internal/driver/render"
	"github.com/thelink2012/gta3sc-sub000/pkg/diag"
)

var dumpIRCmd = &cobra.Command{
	Use:   "dump-ir [flags] main_script",
	Short: "print the intermediate representation of a script.",
	Long: `Parse (and, with --sema, analyze) a script and print its intermediate
	 representation, either as a flat listing or as JSON.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		asJSON := GetFlag(cmd, "json")
		wantSema := GetFlag(cmd, "sema")

		collector := diag.NewCollector()
		drv := driver.New(buildConfig(cmd), diag.NewHandler(collector.Emit))
		defer drv.Close()

		result, err := drv.Check(args[0])
		render.New(os.Stderr, drv.SourceManager()).RenderAll(collector.Diagnostics())
		if result == nil {
			log.Errorln(err)
			os.Exit(1)
		}
		if wantSema && err != nil {
			log.Errorln(err)
			os.Exit(1)
		}

		for _, f := range result.Files {
			var dumpErr error
			switch {
			case wantSema && asJSON:
				dumpErr = dump.SemaIRJSON(os.Stdout, f.SemaIR)
			case wantSema:
				dumpErr = dump.SemaIRText(os.Stdout, f.SemaIR)
			case asJSON:
				dumpErr = dump.ParserIRJSON(os.Stdout, f.ParserIR)
			default:
				dumpErr = dump.ParserIRText(os.Stdout, f.ParserIR)
			}
			if dumpErr != nil {
				log.Errorln(dumpErr)
				os.Exit(1)
			}
		}
	},
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(dumpIRCmd)
	dumpIRCmd.Flags().Bool("json", false, "print as JSON")
	dumpIRCmd.Flags().Bool("sema", false, "print Sema-IR instead of Parser-IR")
}
