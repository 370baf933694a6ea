package history

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Store persists ledger rows in Postgres. It exposes exactly the two
// write shapes the ledger allows: append a new row, or flip the latest
// row's status to inactive. There is no generic update.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pgx connection pool for the ledger database.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to ledger database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the ledger table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create ledger schema: %w", err)
	}
	return nil
}

// LatestPerIdentity reduces the ledger to its authoritative record per
// identity key, keyed by the lower-cased identity.
func (s *Store) LatestPerIdentity(ctx context.Context) (map[string]Record, error) {
	rows, err := s.pool.Query(ctx, selectLatestPerIdentity)
	if err != nil {
		return nil, fmt.Errorf("latest-per-identity query failed: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]Record)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		latest[strings.ToLower(record.Identity)] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("latest-per-identity scan failed: %w", err)
	}
	return latest, nil
}

// RecordsForIdentity returns the full history of one identity, newest first.
func (s *Store) RecordsForIdentity(ctx context.Context, identity string) ([]Record, error) {
	rows, err := s.pool.Query(ctx, selectByIdentity, identity)
	if err != nil {
		return nil, fmt.Errorf("history query for %s failed: %w", identity, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history scan for %s failed: %w", identity, err)
	}
	return records, nil
}

// Apply commits an entire plan in one transaction: every staged insert,
// append, and deactivation succeeds together or the transaction rolls back.
func (s *Store) Apply(ctx context.Context, plan Plan) (err error) {
	if plan.Empty() {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollbackOrCommit(ctx, tx, &err)

	for _, record := range plan.Inserts {
		if err = appendRecord(ctx, tx, record); err != nil {
			return fmt.Errorf("insert for %s failed: %w", record.Identity, err)
		}
	}
	for _, record := range plan.Appends {
		if err = appendRecord(ctx, tx, record); err != nil {
			return fmt.Errorf("append for %s failed: %w", record.Identity, err)
		}
	}
	for _, record := range plan.Deactivations {
		if _, err = tx.Exec(ctx, markInactive, RecordInactive, plan.Stamp, record.ID); err != nil {
			return fmt.Errorf("deactivation for %s failed: %w", record.Identity, err)
		}
	}

	return nil
}

func appendRecord(ctx context.Context, tx pgx.Tx, record Record) error {
	_, err := tx.Exec(ctx, insertRecord,
		record.Identity,
		record.Status,
		record.Department,
		record.Groups,
		record.StreetAddress,
		record.Email,
		record.UpdateStamp,
	)
	return err
}

func scanRecord(rows pgx.Rows) (Record, error) {
	var record Record
	err := rows.Scan(
		&record.ID,
		&record.Identity,
		&record.Status,
		&record.Department,
		&record.Groups,
		&record.StreetAddress,
		&record.Email,
		&record.UpdateStamp,
	)
	if err != nil {
		return Record{}, fmt.Errorf("scan ledger row: %w", err)
	}
	return record, nil
}

func rollbackOrCommit(ctx context.Context, tx pgx.Tx, err *error) {
	if *err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			slog.Error("transaction rollback failed", "error", rbErr, "cause", *err)
		} else {
			slog.Warn("transaction rolled back", "cause", *err)
		}
		return
	}
	if cmErr := tx.Commit(ctx); cmErr != nil {
		*err = fmt.Errorf("commit failed: %w", cmErr)
	}
}
