// Command sqlmongo is a thin CLI wrapper around the translation engine:
// read a SQL statement from the command line, translate it, and print the
// resulting mongo shell syntax. Configuration loading and logger setup
// follow cert-lv-graphoscope's main.go convention: load the config file,
// set up the logger, bail with a one-line message on either failure.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sqlmongo-engine/sqlmongo"
	"github.com/sqlmongo-engine/sqlmongo/internal/config"
	"github.com/sqlmongo-engine/sqlmongo/internal/obs"
)

func main() {
	configPath := flag.String("config", "", "path to the sqlmongo YAML configuration file")
	query := flag.String("query", "", "SQL statement to translate")
	flag.Parse()

	if *query == "" {
		fmt.Fprintln(os.Stderr, "Usage: sqlmongo -query 'SELECT ...' [-config sqlmongo.yaml]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Can't load configuration: %s\n", err.Error())
		os.Exit(1)
	}

	if err := obs.Setup(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Can't set up logger: %s\n", err.Error())
		os.Exit(1)
	}

	types, err := cfg.FieldTypeMap()
	if err != nil {
		obs.Log.Fatal().Err(err).Msg("invalid field type configuration")
	}

	plan, err := sqlmongo.Translate(*query, types, nil)
	if err != nil {
		obs.Log.Fatal().Err(err).Msg("translation failed")
	}

	shell, err := sqlmongo.Shell(plan, cfg.RenderOptions())
	if err != nil {
		obs.Log.Fatal().Err(err).Msg("rendering failed")
	}

	fmt.Println(shell)
}
