package telegram

import (
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"portfolioSim/internal/finance"
	"portfolioSim/internal/pipeline"
	"portfolioSim/internal/report"
	"portfolioSim/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeSender) photos() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.sent {
		if _, ok := c.(tgbotapi.PhotoConfig); ok {
			n++
		}
	}
	return n
}

func chatTable() *finance.ReturnTable {
	t := &finance.ReturnTable{Assets: []string{"ES", "ZN", "TF", "PAIR"}}
	start := time.Date(2012, 1, 31, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		x := float64(i)
		t.Times = append(t.Times, start.AddDate(0, i, 0))
		t.Rows = append(t.Rows, []float64{
			0.012*math.Sin(0.8*x) + 0.006,
			0.005*math.Cos(0.4*x) + 0.002,
			0.009*math.Sin(0.25*x+2) + 0.004,
			0.003*math.Cos(1.1*x) + 0.001,
		})
	}
	return t
}

func newTestHandlers(t *testing.T) (*Handlers, *fakeSender) {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.InitSchema(db))
	store := storage.NewStore(db)

	defaults := pipeline.DefaultParams()
	defaults.Trials = 100
	defaults.TopK = 5

	sender := &fakeSender{}
	h := NewHandlers(sender, Deps{
		Runner:   &pipeline.Runner{Store: store},
		Store:    store,
		Defaults: defaults,
		Charts:   report.NewCharts(report.NewChartCache(time.Minute)),
		Tables: func(freq finance.Frequency) (*finance.ReturnTable, error) {
			return chatTable(), nil
		},
	})
	return h, sender
}

func message(chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: chatID}}
}

func TestHandlePortopt(t *testing.T) {
	h, sender := newTestHandlers(t)
	h.HandleMessage(message(7, "/portopt 150 monthly"))

	texts := sender.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, "Simulating 150 portfolios on monthly data…", texts[0])
	assert.Contains(t, texts[1], "150 portfolios, monthly data")
	assert.Contains(t, texts[1], "Median of top 5")
	assert.Equal(t, 2, sender.photos())

	runs, err := h.Store.ListRuns(7, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 150, runs[0].Trials)
}

func TestHandlePortopt_BadArguments(t *testing.T) {
	h, sender := newTestHandlers(t)
	h.HandleMessage(message(1, "/portopt 100 weekly"))
	h.HandleMessage(message(1, "/portopt 0"))

	texts := sender.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], `invalid frequency "weekly"`)
	assert.Contains(t, texts[1], "Trials must be between 1 and")
}

func TestHandlePortopt_LoadFailure(t *testing.T) {
	h, sender := newTestHandlers(t)
	h.Tables = func(finance.Frequency) (*finance.ReturnTable, error) { return nil, errors.New("no file") }
	h.HandleMessage(message(1, "/portopt"))
	assert.Equal(t, []string{"Loading data failed: no file"}, sender.texts())
}

func TestHandleScore(t *testing.T) {
	h, sender := newTestHandlers(t)
	h.HandleMessage(message(1, "/score es 0.4 zn 0.3 tf 0.2 pair 0.1"))
	h.HandleMessage(message(1, "/score ES 0.5 ZN 0.1"))

	texts := sender.texts()
	require.Len(t, texts, 2)
	assert.True(t, strings.HasPrefix(texts[0], "<pre>"))
	assert.Contains(t, texts[0], "Out-of-sample, annualized")
	assert.Contains(t, texts[1], "Couldn’t parse allocation")
	assert.Contains(t, texts[1], "/score ES 0.25 ZN 0.25 TF 0.25 PAIR 0.25")
}

func TestHandleRuns(t *testing.T) {
	h, sender := newTestHandlers(t)
	h.HandleMessage(message(3, "/runs"))
	h.HandleMessage(message(3, "/portopt 50"))
	h.HandleMessage(message(3, "/runs 2"))

	texts := sender.texts()
	assert.Equal(t, "No runs yet. Try /portopt", texts[0])
	last := texts[len(texts)-1]
	assert.Contains(t, last, "<pre>")
	assert.Contains(t, last, "monthly")
}

func TestHandleHelp(t *testing.T) {
	h, sender := newTestHandlers(t)
	h.HandleMessage(message(1, "/help"))
	h.HandleMessage(message(1, "hello there"))

	texts := sender.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "/portopt [trials] [daily|monthly]")
	assert.Contains(t, texts[0], "Defaults: 100 trials, top 5, monthly data, 80% of history")
}

func TestWebhookHandler(t *testing.T) {
	h, _ := newTestHandlers(t)
	b := &Bot{h: h}

	rec := httptest.NewRecorder()
	b.WebhookHandler(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	b.WebhookHandler(rec, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(`{"update_id":1}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
