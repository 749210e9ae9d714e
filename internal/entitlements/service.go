package entitlements

import (
	"context"
	"time"
)

type store interface {
	Get(ctx context.Context, userID string) (Entitlement, error)
	ConsumeTrial(ctx context.Context, userID string) (Entitlement, error)
}

// Service is the entitlement gate: it decides whether billable work may start
// and meters trial consumption. Authorization never mutates state; consumption
// is a separate, single atomic step.
type Service struct {
	store store
	now   func() time.Time
}

// NewService constructs a Service with an in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore(), now: time.Now}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore, now: time.Now}
}

// Get returns the user's current entitlement, initializing defaults if absent.
func (s *Service) Get(ctx context.Context, userID string) (Entitlement, error) {
	return s.store.Get(ctx, userID)
}

// Authorize allows the action when the user holds an unexpired paid plan or
// has trial uses remaining. It returns ErrEntitlementExhausted otherwise and
// never changes any counter.
func (s *Service) Authorize(ctx context.Context, userID string) error {
	ent, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if ent.Active(s.now()) {
		return nil
	}
	if ent.TrialRemaining > 0 {
		return nil
	}
	return ErrEntitlementExhausted
}

// Consume burns one trial use for free-plan users. Paid-plan users are never
// trial-metered, so consumption is a no-op for them; the counter never goes
// below zero. Callers invoke this exactly once per gated action, after the
// action's other preconditions have succeeded.
func (s *Service) Consume(ctx context.Context, userID string) (Entitlement, error) {
	return s.store.ConsumeTrial(ctx, userID)
}
