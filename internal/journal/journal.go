// Package journal mirrors published market.Event notifications into
// Postgres for after-the-fact audit. The core never reads from it: the
// engine's own correctness depends only on its in-memory ledger, never
// on this journal being present or caught up.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"fxmarket/internal/market"
)

// Writer owns the database handle. It does not satisfy
// market.Subscriber itself; Subscriber (below) adapts it for one named
// market so it can be registered against a MarketEngine.
type Writer struct {
	db *sql.DB
}

// Open connects to dsn and verifies the connection.
func Open(dsn string) (*Writer, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Writer{db: db}, nil
}

// Migrate applies every pending migration under dir.
func (w *Writer) Migrate(dir string) error {
	driver, err := postgres.WithInstance(w.db, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// OnEvent writes ev to event_log. A write failure is swallowed beyond
// a best-effort retry-free attempt: the journal is a diagnostic mirror
// that must never be allowed to break a market's event publication.
func (w *Writer) OnEvent(marketName string, ev market.Event) {
	_, _ = w.db.ExecContext(context.Background(),
		`INSERT INTO event_log (market, kind, good, qty, price, token) VALUES ($1,$2,$3,$4,$5,$6)`,
		marketName, ev.Kind.String(), ev.Good.String(), ev.Qty, ev.Price, ev.Token,
	)
}

// Entry is one row read back from event_log.
type Entry struct {
	ID        int64
	Market    string
	Kind      string
	Good      string
	Qty       float32
	Price     float32
	Token     string
	CreatedAt time.Time
}

// Recent returns the most recent limit entries for marketName, newest
// first.
func (w *Writer) Recent(ctx context.Context, marketName string, limit int) ([]Entry, error) {
	rows, err := w.db.QueryContext(ctx,
		`SELECT id, market, kind, good, qty, price, token, created_at
		 FROM event_log WHERE market=$1 ORDER BY created_at DESC LIMIT $2`,
		marketName, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Market, &e.Kind, &e.Good, &e.Qty, &e.Price, &e.Token, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Subscriber adapts Writer to market.Subscriber for one named market.
type Subscriber struct {
	w    *Writer
	name string
}

// NewSubscriber builds a market.Subscriber that mirrors events from
// marketName into w.
func NewSubscriber(w *Writer, marketName string) Subscriber {
	return Subscriber{w: w, name: marketName}
}

func (s Subscriber) OnEvent(ev market.Event) { s.w.OnEvent(s.name, ev) }
