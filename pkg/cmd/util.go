package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/thelink2012/gta3sc-sub000/internal/driver"
	"github.com/thelink2012/gta3sc-sub000/pkg/cmddb"
	"github.com/thelink2012/gta3sc-sub000/pkg/modeltable"
)

// GetFlag gets an expected flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetInt gets an expected signed integer, or exits if an error arises.
func GetInt(cmd *cobra.Command, flag string) int {
	r, err := cmd.Flags().GetInt(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}

	return r
}

// GetString gets an expected string, or exits if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(4)
	}

	return r
}

// configureLogging applies the --verbose flag.
func configureLogging(cmd *cobra.Command) {
	if GetFlag(cmd, "verbose") {
		log.SetLevel(log.DebugLevel)
	}
}

// buildConfig assembles a driver configuration from the persistent
// flags: the command database and, when given, the model table.
func buildConfig(cmd *cobra.Command) driver.Config {
	table, err := cmddb.LoadFile(GetString(cmd, "cmdb"))
	if err != nil {
		log.Errorln(err)
		os.Exit(1)
	}

	cfg := driver.Config{
		Commands: table,
		Storage:  driver.DefaultStorageOptions(),
	}

	if level := GetString(cmd, "level"); level != "" {
		loader := modeltable.Loader{ObjsOnly: GetFlag(cmd, "objs-only")}
		models, err := loader.LoadLevelFile(level)
		if err != nil {
			log.Errorln(err)
			os.Exit(1)
		}
		log.Debugf("loaded %d model names", models.Len())
		cfg.Models = models
	}

	return cfg
}
