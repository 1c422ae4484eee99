package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oatmeal/resume-builder/internal/quota"
)

// The coin_balances table is the authoritative quota store. Every mutation
// below is a single SQL statement so concurrent requests serialize at the
// database row, never in application code.
var _ quota.Store = (*DB)(nil)

// GetOrCreate returns the subject's coin record, creating it with a full
// allotment if absent. Safe under concurrent first-use: ON CONFLICT DO
// NOTHING guarantees exactly one row; the losing caller reads the winner's.
func (db *DB) GetOrCreate(ctx context.Context, subjectID string, allotment int, resetAt time.Time) (quota.Record, error) {
	var rec quota.Record
	err := db.pool.QueryRow(ctx,
		`INSERT INTO coin_balances (subject_id, balance, reset_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (subject_id) DO NOTHING
		 RETURNING subject_id, balance, reset_at`,
		subjectID, allotment, resetAt,
	).Scan(&rec.SubjectID, &rec.Balance, &rec.ResetAt)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return quota.Record{}, fmt.Errorf("failed to create coin balance: %w", err)
	}

	// Row already existed; read it.
	err = db.pool.QueryRow(ctx,
		`SELECT subject_id, balance, reset_at FROM coin_balances WHERE subject_id = $1`,
		subjectID,
	).Scan(&rec.SubjectID, &rec.Balance, &rec.ResetAt)
	if err != nil {
		return quota.Record{}, fmt.Errorf("failed to get coin balance: %w", err)
	}
	return rec, nil
}

// ResetIfStale refills the record to a full allotment and advances its reset
// boundary, but only when the stored boundary has passed. Idempotent: the
// staleness condition lives in the WHERE clause, so a concurrent reset or a
// second call finds nothing to do.
func (db *DB) ResetIfStale(ctx context.Context, subjectID string, allotment int, now, next time.Time) (quota.Record, error) {
	var rec quota.Record
	err := db.pool.QueryRow(ctx,
		`UPDATE coin_balances
		 SET balance = $2, reset_at = $4, updated_at = NOW()
		 WHERE subject_id = $1 AND reset_at <= $3
		 RETURNING subject_id, balance, reset_at`,
		subjectID, allotment, now, next,
	).Scan(&rec.SubjectID, &rec.Balance, &rec.ResetAt)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return quota.Record{}, fmt.Errorf("failed to reset coin balance: %w", err)
	}

	// Not stale (or reset by a concurrent request); return the current row.
	err = db.pool.QueryRow(ctx,
		`SELECT subject_id, balance, reset_at FROM coin_balances WHERE subject_id = $1`,
		subjectID,
	).Scan(&rec.SubjectID, &rec.Balance, &rec.ResetAt)
	if err != nil {
		return quota.Record{}, fmt.Errorf("failed to get coin balance: %w", err)
	}
	return rec, nil
}

// TryConsume is the authoritative atomic debit: one UPDATE folds the lazy
// reset and the conditional decrement together, and the WHERE clause refuses
// the statement outright when the (possibly refreshed) balance is below cost.
// Two concurrent debits therefore serialize on the row and can never drive
// the balance negative.
func (db *DB) TryConsume(ctx context.Context, subjectID string, cost, allotment int, now, next time.Time) (quota.Record, bool, error) {
	var rec quota.Record
	err := db.pool.QueryRow(ctx,
		`UPDATE coin_balances
		 SET balance = CASE WHEN reset_at <= $3 THEN $4 - $2 ELSE balance - $2 END,
		     reset_at = CASE WHEN reset_at <= $3 THEN $5 ELSE reset_at END,
		     updated_at = NOW()
		 WHERE subject_id = $1
		   AND (CASE WHEN reset_at <= $3 THEN $4 ELSE balance END) >= $2
		 RETURNING subject_id, balance, reset_at`,
		subjectID, cost, now, allotment, next,
	).Scan(&rec.SubjectID, &rec.Balance, &rec.ResetAt)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return quota.Record{}, false, fmt.Errorf("failed to deduct coins: %w", err)
	}

	// Insufficient balance (or missing row). Report the current state without
	// debiting; reset-on-read keeps the reported balance meaningful.
	rec, err = db.ResetIfStale(ctx, subjectID, allotment, now, next)
	if err != nil {
		return quota.Record{}, false, err
	}
	return rec, false, nil
}

// Credit atomically adds coins to the subject's balance (administrative
// top-up). The balance may exceed the daily allotment until the next reset.
func (db *DB) Credit(ctx context.Context, subjectID string, amount, allotment int, resetAt time.Time) (quota.Record, error) {
	if _, err := db.GetOrCreate(ctx, subjectID, allotment, resetAt); err != nil {
		return quota.Record{}, err
	}

	var rec quota.Record
	err := db.pool.QueryRow(ctx,
		`UPDATE coin_balances
		 SET balance = balance + $2, updated_at = NOW()
		 WHERE subject_id = $1
		 RETURNING subject_id, balance, reset_at`,
		subjectID, amount,
	).Scan(&rec.SubjectID, &rec.Balance, &rec.ResetAt)
	if err != nil {
		return quota.Record{}, fmt.Errorf("failed to credit coins: %w", err)
	}
	return rec, nil
}
