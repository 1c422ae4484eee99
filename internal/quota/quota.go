package quota

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Record is the durable per-subject coin balance and its reset boundary.
type Record struct {
	SubjectID string    `json:"subject_id"`
	Balance   int       `json:"balance"`
	ResetAt   time.Time `json:"reset_at"`
}

// Store is durable, concurrency-safe storage for Records.
//
// Implementations must make TryConsume a single atomic operation: lazy reset
// plus conditional decrement, refusing to mutate when the (possibly reset)
// balance is below cost. A read-then-write pair is not an acceptable
// implementation. GetOrCreate must tolerate concurrent first-use calls for
// the same subject, producing exactly one record.
type Store interface {
	// GetOrCreate returns the subject's record, creating it with a full
	// allotment and the given reset boundary if absent.
	GetOrCreate(ctx context.Context, subjectID string, allotment int, resetAt time.Time) (Record, error)

	// ResetIfStale refills the record to allotment and advances its boundary
	// to next if its stored boundary is at or before now. Refreshing an
	// already-fresh record is a no-op. The record must exist.
	ResetIfStale(ctx context.Context, subjectID string, allotment int, now, next time.Time) (Record, error)

	// TryConsume atomically applies a lazy reset, then debits cost if the
	// balance allows it. Returns the post-operation record and whether the
	// debit happened. An insufficient balance is not an error.
	TryConsume(ctx context.Context, subjectID string, cost, allotment int, now, next time.Time) (Record, bool, error)

	// Credit atomically adds amount to the subject's balance, creating the
	// record first if needed. The balance may exceed the allotment afterward.
	Credit(ctx context.Context, subjectID string, amount, allotment int, resetAt time.Time) (Record, error)
}

// CheckResult is the advisory answer to "can this subject use this feature".
type CheckResult struct {
	Allowed  bool      `json:"allowed"`
	Balance  int       `json:"balance"`
	Required int       `json:"required"`
	ResetAt  time.Time `json:"reset_at"`
	Limit    int       `json:"limit"`
}

// ConsumeResult is the authoritative outcome of a debit attempt.
type ConsumeResult struct {
	Success bool      `json:"success"`
	Balance int       `json:"balance"`
	ResetAt time.Time `json:"reset_at"`
	Message string    `json:"message,omitempty"`
}

// Service composes a Store with the cost table and reset policy.
//
// Check fails open on storage errors (availability over strictness for the
// advisory path); Consume fails closed (billing correctness). Callers debit
// before invoking the gated AI call; a unit spent on a call that then fails
// upstream is accepted, documented lost-unit behavior.
type Service struct {
	store     Store
	costs     Costs
	allotment int
	policy    ResetPolicy
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPolicy overrides the reset policy (default: rolling 24h window).
func WithPolicy(p ResetPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// NewService creates a Service. The cost table is validated against the
// allotment up front so an unaffordable or unknown feature is a startup
// failure, not a request-time surprise.
func NewService(store Store, costs Costs, dailyAllotment int, opts ...Option) (*Service, error) {
	if err := costs.Validate(dailyAllotment); err != nil {
		return nil, fmt.Errorf("invalid cost table: %w", err)
	}
	s := &Service{
		store:     store,
		costs:     costs,
		allotment: dailyAllotment,
		policy:    DefaultPolicy(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Allotment returns the daily coin allotment.
func (s *Service) Allotment() int { return s.allotment }

// Costs returns the cost table.
func (s *Service) Costs() Costs { return s.costs }

// Balance returns the subject's current record, creating it on first use and
// applying a lazy reset if the boundary has passed.
func (s *Service) Balance(ctx context.Context, subjectID string) (Record, error) {
	if subjectID == "" {
		return Record{}, fmt.Errorf("subject id is empty")
	}
	now := s.now()
	rec, err := s.store.GetOrCreate(ctx, subjectID, s.allotment, s.policy.Next(now))
	if err != nil {
		return Record{}, fmt.Errorf("failed to load balance: %w", err)
	}
	if Stale(rec.ResetAt, now) {
		rec, err = s.store.ResetIfStale(ctx, subjectID, s.allotment, now, s.policy.Next(now))
		if err != nil {
			return Record{}, fmt.Errorf("failed to reset balance: %w", err)
		}
	}
	return rec, nil
}

// Check answers whether the subject can afford the feature right now.
// Advisory only: a concurrent debit may exhaust the balance between Check
// and Consume. Storage failures fail open with a logged warning so an
// operational incident does not lock legitimate users out of the check path.
func (s *Service) Check(ctx context.Context, subjectID string, feature Feature) (CheckResult, error) {
	cost, err := s.costs.Cost(feature)
	if err != nil {
		return CheckResult{}, err
	}
	if subjectID == "" {
		return CheckResult{Required: cost, Limit: s.allotment}, fmt.Errorf("subject id is empty")
	}

	rec, err := s.Balance(ctx, subjectID)
	if err != nil {
		log.Printf("[QUOTA] WARN check failing open for subject %s: %v", subjectID, err)
		return CheckResult{
			Allowed:  true,
			Balance:  s.allotment,
			Required: cost,
			Limit:    s.allotment,
		}, nil
	}

	return CheckResult{
		Allowed:  rec.Balance >= cost,
		Balance:  rec.Balance,
		Required: cost,
		ResetAt:  rec.ResetAt,
		Limit:    s.allotment,
	}, nil
}

// Consume performs the authoritative atomic debit for a feature. An
// insufficient balance is an expected outcome carried in the result, not an
// error; storage failures are returned as errors and the caller must treat
// the action as not authorized.
func (s *Service) Consume(ctx context.Context, subjectID string, feature Feature) (ConsumeResult, error) {
	cost, err := s.costs.Cost(feature)
	if err != nil {
		return ConsumeResult{}, err
	}
	if subjectID == "" {
		return ConsumeResult{}, fmt.Errorf("subject id is empty")
	}

	now := s.now()
	next := s.policy.Next(now)
	if _, err := s.store.GetOrCreate(ctx, subjectID, s.allotment, next); err != nil {
		return ConsumeResult{}, fmt.Errorf("failed to load balance: %w", err)
	}

	rec, ok, err := s.store.TryConsume(ctx, subjectID, cost, s.allotment, now, next)
	if err != nil {
		return ConsumeResult{}, fmt.Errorf("failed to deduct coins: %w", err)
	}
	if !ok {
		return ConsumeResult{
			Success: false,
			Balance: rec.Balance,
			ResetAt: rec.ResetAt,
			Message: fmt.Sprintf("Insufficient coins. Required: %d, Available: %d", cost, rec.Balance),
		}, nil
	}
	return ConsumeResult{
		Success: true,
		Balance: rec.Balance,
		ResetAt: rec.ResetAt,
		Message: fmt.Sprintf("Successfully deducted %d coin(s)", cost),
	}, nil
}

// Credit adds coins to a subject's balance (administrative top-up). The
// resulting balance may exceed the daily allotment until the next reset.
func (s *Service) Credit(ctx context.Context, subjectID string, amount int) (Record, error) {
	if subjectID == "" {
		return Record{}, fmt.Errorf("subject id is empty")
	}
	if amount < 1 {
		return Record{}, fmt.Errorf("credit amount must be at least 1, got %d", amount)
	}
	rec, err := s.store.Credit(ctx, subjectID, amount, s.allotment, s.policy.Next(s.now()))
	if err != nil {
		return Record{}, fmt.Errorf("failed to credit coins: %w", err)
	}
	return rec, nil
}
