// Package audit exports transaction records to an external sink. The
// in-process log has bounded retention; the sink is where records go to
// outlive it. Exports run on the worker pool, never on the request path,
// and a failed export is logged and dropped: liquidity decisions do not
// depend on the audit trail.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paynet/nexus-liquidity/internal/models"
	"github.com/paynet/nexus-liquidity/internal/worker"
)

const exportTimeout = 5 * time.Second

// PGSink writes records to Postgres.
type PGSink struct {
	pool *pgxpool.Pool
	wp   *worker.Pool
	log  *slog.Logger
}

func NewPGSink(ctx context.Context, pool *pgxpool.Pool, wp *worker.Pool, log *slog.Logger) (*PGSink, error) {
	s := &PGSink{pool: pool, wp: wp, log: log}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PGSink) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS liquidity_records (
			id                TEXT PRIMARY KEY,
			bank_id           TEXT NOT NULL,
			kind              TEXT NOT NULL,
			amount            NUMERIC NOT NULL,
			currency          TEXT NOT NULL,
			previous_balance  NUMERIC NOT NULL,
			remaining_balance NUMERIC NOT NULL,
			created_at        TIMESTAMPTZ NOT NULL
		)`)
	return err
}

// Export enqueues the record for asynchronous insertion.
func (s *PGSink) Export(_ context.Context, rec models.TransactionRecord) {
	s.wp.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		_, err := s.pool.Exec(ctx, `
			INSERT INTO liquidity_records(id, bank_id, kind, amount, currency, previous_balance, remaining_balance, created_at)
			VALUES($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO NOTHING`,
			rec.ID, rec.BankID, string(rec.Kind), rec.Amount.String(), rec.Currency,
			rec.PreviousBalance.String(), rec.RemainingBalance.String(), rec.Timestamp,
		)
		if err != nil {
			s.log.Error("audit export", "record", rec.ID, "err", err)
		}
	})
}
