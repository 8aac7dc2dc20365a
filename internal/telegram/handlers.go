package telegram

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"portfolioSim/internal/finance"
	"portfolioSim/internal/pipeline"
	"portfolioSim/internal/report"
	"portfolioSim/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	maxChatTrials = 200000
	maxChatRuns   = 20
	runTimeout    = 2 * time.Minute
)

var (
	// /portopt [trials] [daily|monthly]
	rePortopt = regexp.MustCompile(`^/portopt(?:@[\w_]+)?(?:\s+(\d+))?(?:\s+([A-Za-z]+))?$`)
	// /score ES 0.4 ZN 0.3 ...
	reScore = regexp.MustCompile(`^/score(?:@[\w_]+)?\s+(.+)$`)
	// /runs [n]
	reRuns = regexp.MustCompile(`^/runs(?:@[\w_]+)?(?:\s+(\d+))?$`)
	reHelp = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
)

// Sender is the part of the Telegram API the handlers use
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Commentator writes a narrative for a finished run
type Commentator interface {
	Comment(ctx context.Context, res *pipeline.Result) (string, error)
}

// Deps wires the handlers to the simulation stack
type Deps struct {
	Runner   *pipeline.Runner
	Store    *storage.Store // Optional, enables /runs
	Defaults pipeline.Params
	Charts   *report.Charts
	// Tables loads the return table for a frequency
	Tables      func(freq finance.Frequency) (*finance.ReturnTable, error)
	Commentator Commentator // Optional
}

type Handlers struct {
	api Sender
	Deps
}

func NewHandlers(api Sender, deps Deps) *Handlers {
	if deps.Runner == nil {
		deps.Runner = &pipeline.Runner{}
	}
	return &Handlers{api: api, Deps: deps}
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	txt := strings.TrimSpace(m.Text)
	switch {
	case rePortopt.MatchString(txt):
		g := rePortopt.FindStringSubmatch(txt)
		p := h.Defaults
		if g[1] != "" {
			n, err := strconv.Atoi(g[1])
			if err != nil || n < 1 || n > maxChatTrials {
				h.reply(m.Chat.ID, fmt.Sprintf("Trials must be between 1 and %d", maxChatTrials))
				return
			}
			p.Trials = n
		}
		if g[2] != "" {
			freq, err := finance.ParseFrequency(g[2])
			if err != nil {
				h.reply(m.Chat.ID, err.Error()+", use daily or monthly")
				return
			}
			p.Frequency = freq
		}
		p.ChatID = m.Chat.ID
		h.handlePortopt(m.Chat.ID, p)

	case reScore.MatchString(txt):
		h.handleScore(m.Chat.ID, reScore.FindStringSubmatch(txt)[1])

	case reRuns.MatchString(txt):
		n := 5
		if g := reRuns.FindStringSubmatch(txt); g[1] != "" {
			n, _ = strconv.Atoi(g[1])
			if n < 1 {
				n = 1
			}
			if n > maxChatRuns {
				n = maxChatRuns
			}
		}
		h.handleRuns(m.Chat.ID, n)

	case reHelp.MatchString(txt):
		h.handleHelp(m.Chat.ID)
	}
}

func (h *Handlers) handlePortopt(chatID int64, p pipeline.Params) {
	table, err := h.Tables(p.Frequency)
	if err != nil {
		h.reply(chatID, "Loading data failed: "+err.Error())
		return
	}
	h.reply(chatID, fmt.Sprintf("Simulating %d portfolios on %s data…", p.Trials, p.Frequency))

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	res, err := h.Runner.Run(ctx, table, p)
	if err != nil && res == nil {
		h.reply(chatID, "Simulation failed: "+err.Error())
		return
	}
	if err != nil {
		// The run finished but could not be persisted
		log.Warn().Err(err).Str("run", res.RunID).Msg("telegram: run not saved")
	}
	h.reply(chatID, report.Summary(res))

	if h.Charts != nil {
		if img, err := h.Charts.BestCurveChart(res); err == nil {
			h.sendPhoto(chatID, "best_"+res.RunID+".png", img, "Best portfolio over the full history")
		} else {
			log.Warn().Err(err).Msg("telegram: best curve chart failed")
		}
		if img, err := h.Charts.OutOfSampleChart(res); err == nil {
			h.sendPhoto(chatID, "oos_"+res.RunID+".png", img, "Median allocation on held-out data")
		} else {
			log.Warn().Err(err).Msg("telegram: out-of-sample chart failed")
		}
	}

	if h.Commentator != nil {
		text, err := h.Commentator.Comment(ctx, res)
		if err != nil {
			log.Warn().Err(err).Msg("telegram: commentary failed")
			return
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = "Markdown"
		h.send(msg)
	}
}

func (h *Handlers) handleScore(chatID int64, input string) {
	table, err := h.Tables(h.Defaults.Frequency)
	if err != nil {
		h.reply(chatID, "Loading data failed: "+err.Error())
		return
	}
	weights, err := finance.ParseAllocation(input, table.Assets)
	if err != nil {
		h.reply(chatID, fmt.Sprintf("Couldn’t parse allocation: %v\ne.g. /score %s", err, exampleAllocation(table.Assets)))
		return
	}
	s, err := pipeline.Score(table, weights, h.Defaults)
	if err != nil {
		h.reply(chatID, "Scoring failed: "+err.Error())
		return
	}
	var buf bytes.Buffer
	if err := report.WriteScore(&buf, s); err != nil {
		h.reply(chatID, "Scoring failed: "+err.Error())
		return
	}
	h.replyPre(chatID, buf.String())
}

func (h *Handlers) handleRuns(chatID int64, n int) {
	if h.Store == nil {
		h.reply(chatID, "Run history is not enabled.")
		return
	}
	runs, err := h.Store.ListRuns(chatID, n)
	if err != nil {
		h.reply(chatID, "History failed: "+err.Error())
		return
	}
	if len(runs) == 0 {
		h.reply(chatID, "No runs yet. Try /portopt")
		return
	}
	var buf bytes.Buffer
	if err := report.WriteHistory(&buf, runs); err != nil {
		h.reply(chatID, "History failed: "+err.Error())
		return
	}
	h.replyPre(chatID, buf.String())
}

func (h *Handlers) handleHelp(chatID int64) {
	help := "Commands\n\n" +
		"- /portopt [trials] [daily|monthly] - Simulate random portfolios, report the best and the median of the top ones, validated on held-out data\n" +
		"- /score ASSET WEIGHT ... - Score your own allocation (weights must sum to 1, shorts allowed)\n" +
		"- /runs [n] - Your last runs (default: 5, max: 20)\n" +
		fmt.Sprintf("\nDefaults: %d trials, top %d, %s data, %.0f%% of history for training.",
			h.Defaults.Trials, h.Defaults.TopK, h.Defaults.Frequency, h.Defaults.TrainFraction*100)
	h.reply(chatID, help)
}

func exampleAllocation(assets []string) string {
	if len(assets) == 0 {
		return "ES 1.0"
	}
	w := 1 / float64(len(assets))
	parts := make([]string, len(assets))
	for i, a := range assets {
		parts[i] = fmt.Sprintf("%s %.2g", a, w)
	}
	return strings.Join(parts, " ")
}

func (h *Handlers) sendPhoto(chatID int64, name string, img []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: img})
	photo.Caption = caption
	h.send(photo)
}

func (h *Handlers) replyPre(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "<pre>"+escapeHTML(text)+"</pre>")
	msg.ParseMode = tgbotapi.ModeHTML
	h.send(msg)
}

func (h *Handlers) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handlers) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		log.Warn().Err(err).Msg("telegram: send failed")
	}
}

func escapeHTML(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
