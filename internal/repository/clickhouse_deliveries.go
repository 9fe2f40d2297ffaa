package repository

import (
	"context"
	"fmt"

	"github.com/jmehdipour/billing-sync/internal/model"
	"github.com/jmoiron/sqlx"
)

// DeliveriesRepository is the webhook delivery audit log kept in ClickHouse.
type DeliveriesRepository interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, d model.Delivery) error
	List(ctx context.Context, f DeliveryFilter) ([]model.Delivery, error)
}

type DeliveryFilter struct {
	EventType string
	Outcome   model.DeliveryOutcome
	Limit     int
	Offset    int
}

type chDeliveriesRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewCHDeliveriesRepository(ch *sqlx.DB) DeliveriesRepository {
	return &chDeliveriesRepository{ch: ch}
}

func (r *chDeliveriesRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.ch.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS webhook_deliveries (
			id          String,
			event_id    String,
			event_type  LowCardinality(String),
			outcome     LowCardinality(String),
			error       String,
			duration_ms Int64,
			received_at DateTime64(3, 'UTC')
		)
		ENGINE = MergeTree
		PARTITION BY toYYYYMM(received_at)
		ORDER BY (received_at, event_id)
	`)
	return err
}

// Insert writes through a single-row batch, the std-interface insert path of
// the ClickHouse driver.
func (r *chDeliveriesRepository) Insert(ctx context.Context, d model.Delivery) error {
	tx, err := r.ch.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO webhook_deliveries (id, event_id, event_type, outcome, error, duration_ms, received_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare delivery insert: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx,
		d.ID, d.EventID, d.EventType, d.Outcome.String(), d.Error, d.DurationMs, d.ReceivedAt.UTC(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *chDeliveriesRepository) List(ctx context.Context, f DeliveryFilter) ([]model.Delivery, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := `
		SELECT id, event_id, event_type, outcome, error, duration_ms, received_at
		FROM webhook_deliveries
		WHERE 1 = 1
	`
	var args []any

	if f.EventType != "" {
		q += " AND event_type = ?"
		args = append(args, f.EventType)
	}
	if f.Outcome != "" {
		q += " AND outcome = ?"
		args = append(args, f.Outcome.String())
	}

	q += " ORDER BY received_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	var rows []model.Delivery
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
