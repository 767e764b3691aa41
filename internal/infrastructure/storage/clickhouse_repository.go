package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/namay10/DcaVault/internal/domain/model"
	"github.com/namay10/DcaVault/internal/domain/repository"
)

// ClickHouseRepository implements both EventPersistence and VaultPersistence
// using ClickHouse as the backend database. It provides the durable,
// append-only audit trail of vault events plus a history of record snapshots.
type ClickHouseRepository struct {
	conn driver.Conn
}

type ClickHouseConfig struct {
	Addr     string
	Username string
	Password string
	Timeout  int
}

func NewClickHouseRepository(cfg ClickHouseConfig) (*ClickHouseRepository, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: time.Duration(cfg.Timeout) * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	// Check the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	// Ensure tables exist
	if err := createTablesIfNotExist(conn); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &ClickHouseRepository{conn: conn}, nil
}

// Ensure ClickHouseRepository implements both required interfaces
var _ repository.EventPersistence = (*ClickHouseRepository)(nil)
var _ repository.VaultPersistence = (*ClickHouseRepository)(nil)

func createTablesIfNotExist(conn driver.Conn) error {
	// Append-only vault event log
	err := conn.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS vault_events (
			id String,
			kind String,
			owner String,
			amount UInt64,
			proceeds UInt64,
			fee UInt64,
			periods UInt16,
			periods_completed UInt16,
			interval_seconds UInt64,
			next_swap_time Int64,
			is_early_exit Bool,
			timestamp DateTime,
			processed_at DateTime DEFAULT now()
		) ENGINE = MergeTree()
		ORDER BY (owner, timestamp)
	`)
	if err != nil {
		return err
	}

	// Vault record snapshot history
	err = conn.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS vault_snapshots (
			owner String,
			total_amount UInt64,
			periods UInt16,
			interval_seconds UInt64,
			staked_at Int64,
			curr_balance UInt64,
			periods_completed UInt16,
			next_swap_time Int64,
			total_received UInt64,
			custody_address String,
			updated_at DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree()
		ORDER BY (owner, updated_at)
	`)

	return err
}

// EventPersistence interface implementation

// SaveEvent appends one vault event to the audit log.
func (r *ClickHouseRepository) SaveEvent(ctx context.Context, ev *model.VaultEvent) error {
	query := `
		INSERT INTO vault_events (
			id, kind, owner, amount, proceeds, fee,
			periods, periods_completed, interval_seconds,
			next_swap_time, is_early_exit, timestamp
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
	`

	return r.conn.AsyncInsert(ctx, query, false,
		ev.ID,
		string(ev.Kind),
		ev.Owner,
		ev.Amount,
		ev.Proceeds,
		ev.Fee,
		ev.Periods,
		ev.PeriodsCompleted,
		ev.IntervalSeconds,
		ev.NextSwapTime,
		ev.IsEarlyExit,
		time.Unix(ev.Timestamp, 0),
	)
}

// GetEventsSince retrieves all vault events at or after the given timestamp.
func (r *ClickHouseRepository) GetEventsSince(ctx context.Context, since int64) ([]*model.VaultEvent, error) {
	query := `
		SELECT id, kind, owner, amount, proceeds, fee,
			periods, periods_completed, interval_seconds,
			next_swap_time, is_early_exit, timestamp
		FROM vault_events
		WHERE timestamp >= fromUnixTimestamp(?)
		ORDER BY timestamp
	`

	rows, err := r.conn.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.VaultEvent
	for rows.Next() {
		ev := new(model.VaultEvent)
		var kind string
		var ts time.Time
		if err := rows.Scan(
			&ev.ID,
			&kind,
			&ev.Owner,
			&ev.Amount,
			&ev.Proceeds,
			&ev.Fee,
			&ev.Periods,
			&ev.PeriodsCompleted,
			&ev.IntervalSeconds,
			&ev.NextSwapTime,
			&ev.IsEarlyExit,
			&ts,
		); err != nil {
			return nil, err
		}
		ev.Kind = model.EventKind(kind)
		ev.Timestamp = ts.Unix()
		results = append(results, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// VaultPersistence interface implementation

// SaveVault appends a snapshot of the vault record.
func (r *ClickHouseRepository) SaveVault(ctx context.Context, v *model.VaultRecord) error {
	query := `
		INSERT INTO vault_snapshots (
			owner, total_amount, periods, interval_seconds, staked_at,
			curr_balance, periods_completed, next_swap_time, total_received,
			custody_address
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
	`

	return r.conn.AsyncInsert(ctx, query, false,
		v.Owner,
		v.TotalAmount,
		v.Periods,
		v.IntervalSeconds,
		v.StakedAt,
		v.CurrBalance,
		v.PeriodsCompleted,
		v.NextSwapTime,
		v.TotalReceived,
		v.CustodyAddress,
	)
}

// GetVault retrieves the most recent snapshot for an owner.
func (r *ClickHouseRepository) GetVault(ctx context.Context, owner string) (*model.VaultRecord, error) {
	query := `
		SELECT owner, total_amount, periods, interval_seconds, staked_at,
			curr_balance, periods_completed, next_swap_time, total_received,
			custody_address
		FROM vault_snapshots
		WHERE owner = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var v model.VaultRecord
	row := r.conn.QueryRow(ctx, query, owner)
	err := row.Scan(
		&v.Owner,
		&v.TotalAmount,
		&v.Periods,
		&v.IntervalSeconds,
		&v.StakedAt,
		&v.CurrBalance,
		&v.PeriodsCompleted,
		&v.NextSwapTime,
		&v.TotalReceived,
		&v.CustodyAddress,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetAllVaults retrieves the latest snapshot of every vault.
func (r *ClickHouseRepository) GetAllVaults(ctx context.Context) ([]*model.VaultRecord, error) {
	query := `
		WITH latest AS (
			SELECT owner, MAX(updated_at) AS latest_update
			FROM vault_snapshots
			GROUP BY owner
		)
		SELECT vs.owner, vs.total_amount, vs.periods, vs.interval_seconds,
			vs.staked_at, vs.curr_balance, vs.periods_completed,
			vs.next_swap_time, vs.total_received, vs.custody_address
		FROM vault_snapshots vs
		INNER JOIN latest l
		ON vs.owner = l.owner AND vs.updated_at = l.latest_update
		ORDER BY vs.owner
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.VaultRecord
	for rows.Next() {
		v := new(model.VaultRecord)
		if err := rows.Scan(
			&v.Owner,
			&v.TotalAmount,
			&v.Periods,
			&v.IntervalSeconds,
			&v.StakedAt,
			&v.CurrBalance,
			&v.PeriodsCompleted,
			&v.NextSwapTime,
			&v.TotalReceived,
			&v.CustodyAddress,
		); err != nil {
			return nil, err
		}
		results = append(results, v)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
