package entitlements

import (
	"context"
	"sync"
)

const defaultTrialUses = 3

type memoryStore struct {
	mu   sync.Mutex
	data map[string]Entitlement
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]Entitlement)}
}

func defaultEntitlement(userID string) Entitlement {
	return Entitlement{
		UserID:         userID,
		Plan:           PlanFree,
		TrialRemaining: defaultTrialUses,
	}
}

func (s *memoryStore) Get(ctx context.Context, userID string) (Entitlement, error) {
	if err := ctx.Err(); err != nil {
		return Entitlement{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.data[userID]
	if !ok {
		ent = defaultEntitlement(userID)
		s.data[userID] = ent
	}
	return ent, nil
}

func (s *memoryStore) ConsumeTrial(ctx context.Context, userID string) (Entitlement, error) {
	if err := ctx.Err(); err != nil {
		return Entitlement{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ent, ok := s.data[userID]
	if !ok {
		ent = defaultEntitlement(userID)
	}
	if ent.Plan == PlanFree && ent.TrialRemaining > 0 {
		ent.TrialRemaining--
	}
	s.data[userID] = ent
	return ent, nil
}

func (s *memoryStore) set(userID string, ent Entitlement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ent.UserID = userID
	s.data[userID] = ent
}
