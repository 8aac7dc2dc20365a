package main

import (
	"os"
	"path/filepath"
	"time"

	"portfolioSim/internal/config"
	"portfolioSim/internal/finance"
	"portfolioSim/internal/loader"
	"portfolioSim/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const version = "v0.3.0"

type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func main() {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:     "portopt",
		Short:   "Monte Carlo portfolio allocation explorer",
		Version: version,
		Long: `portopt scores thousands of random long/short allocations by annualized Sharpe ratio on a
training window, reports the best one and the median of the top ones, and validates the median
allocation on the held-out tail of the history.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(a.runCmd(), a.scoreCmd(), a.historyCmd(), a.botCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) init(cmd *cobra.Command) error {
	setupLogging("info")
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	setupLogging(cfg.LogLevel)
	a.cfg = cfg
	log.Debug().Str("command", cmd.Name()).Str("config", a.configPath).Msg("portopt: config loaded")
	return nil
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	noColor := os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stderr.Fd()))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen, NoColor: noColor})

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// loadTable reads the configured CSV files for the given frequency
func (a *app) loadTable(freq finance.Frequency) (*finance.ReturnTable, error) {
	src, err := a.cfg.Sources(freq)
	if err != nil {
		return nil, err
	}
	table, err := loader.Load(src)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("periods", table.Len()).
		Strs("assets", table.Assets).
		Str("from", table.Times[0].Format(time.DateOnly)).
		Str("to", table.Times[table.Len()-1].Format(time.DateOnly)).
		Msg("loader: return table ready")
	return table, nil
}

// openStore opens the run history database, creating its directory when needed
func (a *app) openStore() (*storage.Store, func(), error) {
	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(a.cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + a.cfg.DBPath + "?_fk=1")
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Str("path", a.cfg.DBPath).Msg("db: opened sqlite")
	if err := storage.InitSchema(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return storage.NewStore(db), func() { db.Close() }, nil
}
