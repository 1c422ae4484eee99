package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, store Store, opts ...Option) *Service {
	t.Helper()
	svc, err := NewService(store, DefaultCosts(), DefaultDailyAllotment, opts...)
	require.NoError(t, err)
	return svc
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestNewServiceRejectsBadCostTable(t *testing.T) {
	_, err := NewService(NewMemoryStore(), Costs{FeatureResumeAI: 3}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cost table")
}

func TestFreshSubjectGetsFullAllotment(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, NewMemoryStore(), WithClock(fixedClock(now)))
	ctx := context.Background()

	rec, err := svc.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Balance)
	assert.Equal(t, now.Add(24*time.Hour), rec.ResetAt)

	// Debit one cover letter: 5 -> 4.
	res, err := svc.Consume(ctx, "u1", FeatureCoverLetter)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 4, res.Balance)
}

func TestConsumeExhaustion(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res, err := svc.Consume(ctx, "u1", FeatureATSCheck)
		require.NoError(t, err)
		require.True(t, res.Success, "debit %d should succeed", i+1)
		assert.Equal(t, 4-i, res.Balance)
	}

	res, err := svc.Consume(ctx, "u1", FeatureATSCheck)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.Balance)
	assert.Contains(t, res.Message, "Insufficient")
}

func TestConsumeCostEnforcement(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	// Spend down to 2.
	res, err := svc.Consume(ctx, "u1", FeatureResumeAI) // cost 3
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 2, res.Balance)

	// resume_ai costs 3, balance is 2: fails and leaves the balance alone.
	res, err = svc.Consume(ctx, "u1", FeatureResumeAI)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 2, res.Balance)

	// Two cost-1 debits then drain it to 0.
	res, err = svc.Consume(ctx, "u1", FeatureATSCheck)
	require.NoError(t, err)
	require.True(t, res.Success)
	res, err = svc.Consume(ctx, "u1", FeatureCoverLetter)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 0, res.Balance)
}

func TestConsumeUnknownFeature(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())

	_, err := svc.Consume(context.Background(), "u1", "free_money")
	var unknown *ErrUnknownFeature
	require.ErrorAs(t, err, &unknown)
}

func TestCheckDoesNotMutateBalance(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res, err := svc.Check(ctx, "u1", FeatureResumeAI)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 5, res.Balance)
		assert.Equal(t, 3, res.Required)
		assert.Equal(t, 5, res.Limit)
	}
}

func TestCheckReportsInsufficient(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	res, err := svc.Consume(ctx, "u1", FeatureResumeAI) // 5 -> 2
	require.NoError(t, err)
	require.True(t, res.Success)

	check, err := svc.Check(ctx, "u1", FeatureResumeAI)
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	assert.Equal(t, 2, check.Balance)
	assert.Equal(t, 3, check.Required)

	check, err = svc.Check(ctx, "u1", FeatureATSCheck)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
}

func TestResetBoundaryRefillsExhaustedBalance(t *testing.T) {
	store := NewMemoryStore()
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := start
	svc := newTestService(t, store, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	// Exhaust the balance.
	for i := 0; i < 5; i++ {
		res, err := svc.Consume(ctx, "u1", FeatureATSCheck)
		require.NoError(t, err)
		require.True(t, res.Success)
	}

	// One second before the boundary: still exhausted.
	clock = start.Add(24*time.Hour - time.Second)
	check, err := svc.Check(ctx, "u1", FeatureATSCheck)
	require.NoError(t, err)
	assert.False(t, check.Allowed)

	// Past the boundary: refilled even though the stored balance was 0.
	clock = start.Add(24*time.Hour + time.Second)
	check, err = svc.Check(ctx, "u1", FeatureATSCheck)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.Equal(t, 5, check.Balance)
	assert.Equal(t, clock.Add(24*time.Hour), check.ResetAt)
}

func TestResetIdempotence(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	start := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	_, err := store.GetOrCreate(ctx, "u1", 5, start.Add(-time.Hour))
	require.NoError(t, err)
	_, _, err = store.TryConsume(ctx, "u1", 2, 5, start.Add(-25*time.Hour), start.Add(-time.Hour))
	require.NoError(t, err)

	// First reset refills and advances the boundary.
	rec, err := store.ResetIfStale(ctx, "u1", 5, start, start.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Balance)
	assert.Equal(t, start.Add(24*time.Hour), rec.ResetAt)

	// Immediate second call is a no-op, even after a debit.
	_, _, err = store.TryConsume(ctx, "u1", 1, 5, start, start.Add(24*time.Hour))
	require.NoError(t, err)
	rec, err = store.ResetIfStale(ctx, "u1", 5, start.Add(time.Second), start.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Balance)
	assert.Equal(t, start.Add(24*time.Hour), rec.ResetAt)
}

func TestCreditExceedsAllotment(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	rec, err := svc.Credit(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, 15, rec.Balance)

	_, err = svc.Credit(ctx, "u1", 0)
	require.Error(t, err)
}

func TestEmptySubjectRejected(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Balance(ctx, "")
	require.Error(t, err)
	_, err = svc.Consume(ctx, "", FeatureATSCheck)
	require.Error(t, err)
	_, err = svc.Credit(ctx, "", 1)
	require.Error(t, err)
}

// failingStore simulates an unreachable backing store.
type failingStore struct{}

var errStoreDown = errors.New("store unreachable")

func (failingStore) GetOrCreate(context.Context, string, int, time.Time) (Record, error) {
	return Record{}, errStoreDown
}
func (failingStore) ResetIfStale(context.Context, string, int, time.Time, time.Time) (Record, error) {
	return Record{}, errStoreDown
}
func (failingStore) TryConsume(context.Context, string, int, int, time.Time, time.Time) (Record, bool, error) {
	return Record{}, false, errStoreDown
}
func (failingStore) Credit(context.Context, string, int, int, time.Time) (Record, error) {
	return Record{}, errStoreDown
}

func TestCheckFailsOpenOnStoreError(t *testing.T) {
	svc := newTestService(t, failingStore{})

	res, err := svc.Check(context.Background(), "u1", FeatureResumeAI)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 3, res.Required)
}

func TestConsumeFailsClosedOnStoreError(t *testing.T) {
	svc := newTestService(t, failingStore{})

	_, err := svc.Consume(context.Background(), "u1", FeatureResumeAI)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestConcurrentConsumeNeverOverdraws(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Consume(ctx, "u1", FeatureATSCheck)
			require.NoError(t, err)
			if res.Success {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Exactly allotment/cost debits succeed; balance ends at 0, never below.
	assert.Equal(t, 5, successes)
	rec, err := svc.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Balance)
}

func TestConcurrentConsumeRaceCostThree(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	// Two simultaneous cost-3 debits against a balance of 5: exactly one wins.
	var wg sync.WaitGroup
	results := make([]ConsumeResult, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Consume(ctx, "u1", FeatureResumeAI)
			require.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	assert.NotEqual(t, results[0].Success, results[1].Success)
	rec, err := svc.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Balance)
}

func TestConcurrentGetOrCreateSingleRecord(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	resetAt := time.Now().Add(24 * time.Hour)

	const workers = 32
	var wg sync.WaitGroup
	records := make([]Record, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := store.GetOrCreate(ctx, "new-user", 5, resetAt)
			require.NoError(t, err)
			records[i] = rec
		}(i)
	}
	wg.Wait()

	for i, rec := range records {
		assert.Equal(t, 5, rec.Balance, "caller %d observed a non-fresh record", i)
		assert.Equal(t, "new-user", rec.SubjectID)
	}
}

func TestConcurrentMixedCostsSumOfSuccessfulDebits(t *testing.T) {
	svc := newTestService(t, NewMemoryStore())
	ctx := context.Background()

	features := []Feature{
		FeatureResumeAI, FeatureATSCheck, FeatureCoverLetter,
		FeatureATSCheck, FeatureResumeAI, FeatureCoverLetter,
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	spent := 0
	for i, f := range features {
		wg.Add(1)
		go func(i int, f Feature) {
			defer wg.Done()
			res, err := svc.Consume(ctx, fmt.Sprintf("u%d", i%2), f)
			require.NoError(t, err)
			if res.Success {
				cost, _ := svc.Costs().Cost(f)
				mu.Lock()
				spent += cost
				mu.Unlock()
			}
		}(i, f)
	}
	wg.Wait()

	// Two subjects, 5 coins each: total successful spend never exceeds 10 and
	// each remaining balance is non-negative.
	assert.LessOrEqual(t, spent, 10)
	for _, id := range []string{"u0", "u1"} {
		rec, err := svc.Balance(ctx, id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rec.Balance, 0)
	}
}
