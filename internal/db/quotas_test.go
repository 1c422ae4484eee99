package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubject() string {
	return "quota-test-" + uuid.New().String()
}

func cleanupBalance(t *testing.T, db *DB, subjectID string) {
	t.Helper()
	_, err := db.pool.Exec(context.Background(),
		`DELETE FROM coin_balances WHERE subject_id = $1`, subjectID)
	require.NoError(t, err)
}

func TestQuotaGetOrCreate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	subject := testSubject()
	defer cleanupBalance(t, db, subject)
	resetAt := time.Now().Add(24 * time.Hour).UTC()

	rec, err := db.GetOrCreate(ctx, subject, 5, resetAt)
	require.NoError(t, err)
	assert.Equal(t, subject, rec.SubjectID)
	assert.Equal(t, 5, rec.Balance)
	assert.WithinDuration(t, resetAt, rec.ResetAt, time.Second)

	// Second call returns the existing record, not a fresh one.
	_, _, err = db.TryConsume(ctx, subject, 2, 5, time.Now().UTC(), resetAt)
	require.NoError(t, err)
	rec2, err := db.GetOrCreate(ctx, subject, 5, time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, rec2.Balance)
	assert.WithinDuration(t, resetAt, rec2.ResetAt, time.Second)
}

func TestQuotaConcurrentGetOrCreate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	subject := testSubject()
	defer cleanupBalance(t, db, subject)
	resetAt := time.Now().Add(24 * time.Hour).UTC()

	const workers = 16
	var wg sync.WaitGroup
	balances := make([]int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := db.GetOrCreate(ctx, subject, 5, resetAt)
			assert.NoError(t, err)
			balances[i] = rec.Balance
		}(i)
	}
	wg.Wait()

	for i, b := range balances {
		assert.Equal(t, 5, b, "caller %d saw a non-fresh record", i)
	}
}

func TestQuotaTryConsume(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	subject := testSubject()
	defer cleanupBalance(t, db, subject)
	now := time.Now().UTC()
	next := now.Add(24 * time.Hour)

	_, err := db.GetOrCreate(ctx, subject, 5, next)
	require.NoError(t, err)

	// Cost 3 on balance 5 succeeds.
	rec, ok, err := db.TryConsume(ctx, subject, 3, 5, now, next)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, rec.Balance)

	// Cost 3 on balance 2 fails and leaves the balance alone.
	rec, ok, err = db.TryConsume(ctx, subject, 3, 5, now, next)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, rec.Balance)

	// Cost 2 then drains it to 0.
	rec, ok, err = db.TryConsume(ctx, subject, 2, 5, now, next)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, rec.Balance)
}

func TestQuotaTryConsumeLazyReset(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	subject := testSubject()
	defer cleanupBalance(t, db, subject)
	now := time.Now().UTC()

	// Record exhausted, boundary in the past.
	_, err := db.GetOrCreate(ctx, subject, 5, now.Add(-time.Hour))
	require.NoError(t, err)
	_, ok, err := db.TryConsume(ctx, subject, 5, 5, now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	// A stale exhausted record refills and debits in the same statement.
	next := now.Add(24 * time.Hour)
	rec, ok, err := db.TryConsume(ctx, subject, 3, 5, now, next)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, rec.Balance)
	assert.WithinDuration(t, next, rec.ResetAt, time.Second)
}

func TestQuotaConcurrentConsumeRace(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	subject := testSubject()
	defer cleanupBalance(t, db, subject)
	now := time.Now().UTC()
	next := now.Add(24 * time.Hour)

	_, err := db.GetOrCreate(ctx, subject, 5, next)
	require.NoError(t, err)

	// Two simultaneous cost-3 debits: exactly one succeeds, balance lands on 2.
	var wg sync.WaitGroup
	outcomes := make([]bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok, err := db.TryConsume(ctx, subject, 3, 5, now, next)
			assert.NoError(t, err)
			outcomes[i] = ok
		}(i)
	}
	wg.Wait()

	assert.NotEqual(t, outcomes[0], outcomes[1])
	rec, err := db.GetOrCreate(ctx, subject, 5, next)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Balance)
}

func TestQuotaResetIdempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	subject := testSubject()
	defer cleanupBalance(t, db, subject)
	now := time.Now().UTC()

	_, err := db.GetOrCreate(ctx, subject, 5, now.Add(-time.Minute))
	require.NoError(t, err)

	next := now.Add(24 * time.Hour)
	rec, err := db.ResetIfStale(ctx, subject, 5, now, next)
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Balance)
	assert.WithinDuration(t, next, rec.ResetAt, time.Second)

	// Debit, then call reset again with a later "now" still inside the window:
	// nothing changes.
	_, ok, err := db.TryConsume(ctx, subject, 1, 5, now, next)
	require.NoError(t, err)
	require.True(t, ok)
	rec, err = db.ResetIfStale(ctx, subject, 5, now.Add(time.Minute), now.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Balance)
	assert.WithinDuration(t, next, rec.ResetAt, time.Second)
}

func TestQuotaCredit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	subject := testSubject()
	defer cleanupBalance(t, db, subject)
	next := time.Now().Add(24 * time.Hour).UTC()

	// Credit on a brand-new subject creates then tops up; ceiling does not
	// apply to administrative credits.
	rec, err := db.Credit(ctx, subject, 7, 5, next)
	require.NoError(t, err)
	assert.Equal(t, 12, rec.Balance)
}
