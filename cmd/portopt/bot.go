package main

import (
	"sync"

	"portfolioSim/internal/finance"
	"portfolioSim/internal/metrics"
	"portfolioSim/internal/openai"
	"portfolioSim/internal/pipeline"
	"portfolioSim/internal/report"
	"portfolioSim/internal/server"
	"portfolioSim/internal/telegram"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve the Telegram bot, /healthz and /metrics",
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.serveBot()
		},
	}
}

func (a *app) serveBot() error {
	if err := a.cfg.ValidateBot(); err != nil {
		return err
	}
	defaults, err := a.cfg.Params()
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	log.Info().Str("path", a.cfg.DBPath).Msg("db: schema ensured (runs table)")

	reg := metrics.NewRegistry()
	deps := telegram.Deps{
		Runner:   &pipeline.Runner{Metrics: reg, Store: store},
		Store:    store,
		Defaults: defaults,
		Charts:   report.NewCharts(report.NewChartCache(0)),
		Tables:   a.cachedTables(),
	}
	if a.cfg.OpenAIKey != "" {
		deps.Commentator = openai.NewCommentator(a.cfg.OpenAIKey)
	} else {
		log.Info().Msg("openai: no API key, run commentary disabled")
	}

	tg, err := telegram.NewBot(a.cfg.TelegramToken, a.cfg.WebhookPublicURL, deps)
	if err != nil {
		return err
	}
	log.Info().Str("webhook", a.cfg.WebhookPublicURL).Msg("telegram: bot initialized")

	mux := server.NewHTTPMux(tg.WebhookHandler, reg.Handler())
	addr := ":" + a.cfg.Port
	log.Info().Str("addr", addr).Msg("http: listening")
	return server.ListenAndServe(addr, mux)
}

// cachedTables loads each frequency's table once; the CSV files don't change while serving
func (a *app) cachedTables() func(finance.Frequency) (*finance.ReturnTable, error) {
	var (
		mu     sync.Mutex
		tables = map[finance.Frequency]*finance.ReturnTable{}
	)
	return func(freq finance.Frequency) (*finance.ReturnTable, error) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := tables[freq]; ok {
			return t, nil
		}
		t, err := a.loadTable(freq)
		if err != nil {
			return nil, err
		}
		tables[freq] = t
		return t, nil
	}
}
