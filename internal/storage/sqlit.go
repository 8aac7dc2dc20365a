package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	Close() error
}

type Store struct{ db DB }

// Run is one persisted simulation run
type Run struct {
	ID            string
	CreatedAt     time.Time
	ChatID        int64 // 0 for CLI runs
	Frequency     string
	Trials        int
	TopK          int
	Seed          uint64
	TrainFraction float64
	Assets        []string

	BestWeights    []float64
	MedianWeights  []float64
	BestReturn     float64
	BestVolatility float64
	BestSharpe     float64

	OOSReturn      float64
	OOSVolatility  float64
	OOSSharpe      float64
	OOSMaxDrawdown float64
}

func OpenSQLite(dsn string) (DB, error) {
	return sql.Open("sqlite3", dsn)
}

func InitSchema(db DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs(
		id TEXT PRIMARY KEY, created_at INTEGER, chat_id INTEGER,
		frequency TEXT, trials INTEGER, top_k INTEGER, seed INTEGER, train_fraction REAL,
		assets TEXT, best_weights TEXT, median_weights TEXT,
		best_return REAL, best_volatility REAL, best_sharpe REAL,
		oos_return REAL, oos_volatility REAL, oos_sharpe REAL, oos_max_drawdown REAL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at)`)
	return err
}

func NewStore(db DB) *Store { return &Store{db: db} }

func (s *Store) SaveRun(r *Run) error {
	assets, err := json.Marshal(r.Assets)
	if err != nil {
		return err
	}
	best, err := json.Marshal(r.BestWeights)
	if err != nil {
		return err
	}
	median, err := json.Marshal(r.MedianWeights)
	if err != nil {
		return err
	}
	// sqlite has no unsigned 64-bit integers; the seed round-trips through its two's complement
	_, err = s.db.Exec(`INSERT INTO runs(id,created_at,chat_id,frequency,trials,top_k,seed,train_fraction,
		assets,best_weights,median_weights,best_return,best_volatility,best_sharpe,
		oos_return,oos_volatility,oos_sharpe,oos_max_drawdown)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.CreatedAt.UnixMilli(), r.ChatID, r.Frequency, r.Trials, r.TopK, int64(r.Seed), r.TrainFraction,
		string(assets), string(best), string(median), r.BestReturn, r.BestVolatility, r.BestSharpe,
		r.OOSReturn, r.OOSVolatility, r.OOSSharpe, r.OOSMaxDrawdown)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

const runColumns = `id,created_at,chat_id,frequency,trials,top_k,seed,train_fraction,
	assets,best_weights,median_weights,best_return,best_volatility,best_sharpe,
	oos_return,oos_volatility,oos_sharpe,oos_max_drawdown`

// ListRuns returns the most recent runs first. chatID 0 lists runs from every chat.
func (s *Store) ListRuns(chatID int64, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	var (
		rows *sql.Rows
		err  error
	)
	if chatID == 0 {
		rows, err = s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.Query(`SELECT `+runColumns+` FROM runs WHERE chat_id=? ORDER BY created_at DESC LIMIT ?`,
			chatID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns the run with the given id, or sql.ErrNoRows
func (s *Store) GetRun(id string) (*Run, error) {
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	return scanRun(rows)
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var (
		r                    Run
		createdAt, seed      int64
		assets, best, median string
	)
	err := rows.Scan(&r.ID, &createdAt, &r.ChatID, &r.Frequency, &r.Trials, &r.TopK, &seed, &r.TrainFraction,
		&assets, &best, &median, &r.BestReturn, &r.BestVolatility, &r.BestSharpe,
		&r.OOSReturn, &r.OOSVolatility, &r.OOSSharpe, &r.OOSMaxDrawdown)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.UnixMilli(createdAt).UTC()
	r.Seed = uint64(seed)
	if err := json.Unmarshal([]byte(assets), &r.Assets); err != nil {
		return nil, fmt.Errorf("run %s assets: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(best), &r.BestWeights); err != nil {
		return nil, fmt.Errorf("run %s best weights: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(median), &r.MedianWeights); err != nil {
		return nil, fmt.Errorf("run %s median weights: %w", r.ID, err)
	}
	return &r, nil
}
