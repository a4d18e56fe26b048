// tabql - load, query and clean tabular data from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/razeghi71/tabql/engine"
	"github.com/razeghi71/tabql/internal/cli"
	"github.com/razeghi71/tabql/internal/config"
	"github.com/razeghi71/tabql/internal/logger"
	"github.com/razeghi71/tabql/loader"
	"github.com/razeghi71/tabql/plot"
)

var (
	version   = "0.1.0"
	buildDate = "dev"
	cfgFile   string
	execInput string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tabql",
		Short: "tabql - query and clean tabular data",
		Long: `tabql loads CSV, JSON, JSONL, Avro and Parquet files into named tables
and lets you query, clean and plot them with a small SQL-like language.

Start the interactive shell:
  tabql

Run statements directly:
  tabql -e "LOAD 'people.csv' AS p; SELECT * FROM p WHERE age > 30;"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.Flags().StringVarP(&execInput, "execute", "e", "", "statements to run instead of starting the shell")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tabql %s (built %s)\n", version, buildDate)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "run <script>",
		Short: "Run a script file of statements",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	})

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	})
	rootCmd.AddCommand(configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds a session wired to the file loader
// and the text plot renderer.
func setup() (*config.Config, *engine.Session, *logger.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initializing logger: %w", err)
	}

	renderer := &plot.TextRenderer{
		W:      os.Stdout,
		Bins:   cfg.Plot.Bins,
		Width:  cfg.Plot.Width,
		Height: cfg.Plot.Height,
	}
	session := engine.NewSession(engine.SourceFunc(loader.Load), renderer, log)
	return cfg, session, log, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, session, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if execInput != "" {
		runner := &cli.Runner{Session: session, Out: os.Stdout, MaxRows: cfg.Display.MaxRows}
		return runner.Run(execInput)
	}

	log.Info("starting shell", "version", version)
	repl := cli.NewREPL(cfg, session, os.Stdout, log)
	if err := repl.Run(); err != nil {
		log.Error("REPL error", "error", err)
		return err
	}
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, session, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}
	log.Debug("running script", "path", args[0])

	runner := &cli.Runner{Session: session, Out: os.Stdout, MaxRows: cfg.Display.MaxRows}
	return runner.Run(string(data))
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "tabql.yaml"
	if len(args) > 0 {
		path = cli.ExpandHome(args[0])
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	fmt.Printf("Created config file: %s\n", path)
	return nil
}
