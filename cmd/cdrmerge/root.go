package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"cdr-reconciler/internal/lookup"
	"cdr-reconciler/internal/phone"
	"cdr-reconciler/pkg/logger"
)

// app carries the state shared by every subcommand. Each root command gets its
// own viper instance so commands stay testable.
type app struct {
	v   *viper.Viper
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: slog.Default()}

	root := &cobra.Command{
		Use:   "cdrmerge",
		Short: "Reconcile dashboard, console and merged CDR exports",
		Long: `cdrmerge merges the call detail records of a client's dashboard and
console exports (and an optional previously merged file) into one record per
call, classifies the dialed numbers and computes billed amounts.

Flags may also be set in ./cdrmerge.yaml, a --config file or CDR_* environment
variables (CDR_TABLES, CDR_JOBS, ...). .env and .env.local are loaded first.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default is ./cdrmerge.yaml)")
	pf.String("tables", "", "classifier tables YAML")
	pf.String("region", phone.DefaultRegion, "region national numbers are read in")
	pf.BoolP("verbose", "v", false, "debug logging")
	pf.Bool("log-json", false, "log as JSON lines")
	for _, name := range []string{"config", "tables", "region", "verbose", "log-json"} {
		if err := a.v.BindPFlag(name, pf.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind %s: %v", name, err))
		}
	}

	root.AddCommand(a.runCmd(), a.classifyCmd(), a.tokenCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	// .env.local overrides .env; neither overrides the real environment
	for _, f := range []string{".env.local", ".env"} {
		_ = godotenv.Load(f)
	}

	a.v.SetEnvPrefix("CDR")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		a.v.AddConfigPath(".")
		a.v.SetConfigName("cdrmerge")
		a.v.SetConfigType("yaml")
		if err := a.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	a.log = logger.NewCLI(cmd.ErrOrStderr(), a.v.GetBool("verbose"), a.v.GetBool("log-json"))
	slog.SetDefault(a.log)
	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.Debug("config loaded", "file", used)
	}
	return nil
}

// bind attaches a subcommand's local flags to viper. It runs in PreRunE so
// subcommands may reuse flag names.
func (a *app) bind(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if err := a.v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return nil
}

// classifier builds the number classifier from --tables. Without tables only
// the call-type, extension and length rules can answer.
func (a *app) classifier() (*phone.Classifier, error) {
	path := a.v.GetString("tables")
	if path == "" {
		a.log.Warn("no classifier tables configured; region, country and emergency rules are disabled")
		return phone.NewClassifier(phone.Tables{}), nil
	}
	tables, err := lookup.LoadTables(path)
	if err != nil {
		return nil, err
	}
	return phone.NewClassifier(tables), nil
}
