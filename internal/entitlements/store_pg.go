package entitlements

import (
	"context"
	"database/sql"
	"errors"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed entitlement store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) Get(ctx context.Context, userID string) (Entitlement, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Entitlement{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	ent, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return Entitlement{}, err
	}
	if err = tx.Commit(); err != nil {
		return Entitlement{}, err
	}
	return ent, nil
}

// ConsumeTrial decrements the trial counter inside one transaction holding a
// row lock, so concurrent uploads for the same user cannot race the counter.
func (s *pgStore) ConsumeTrial(ctx context.Context, userID string) (Entitlement, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Entitlement{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	ent, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return Entitlement{}, err
	}

	if ent.Plan == PlanFree && ent.TrialRemaining > 0 {
		ent.TrialRemaining--
		if _, err = tx.ExecContext(ctx, `
UPDATE entitlements SET trial_remaining = trial_remaining - 1
WHERE user_id = $1 AND plan = $2 AND trial_remaining > 0`, userID, PlanFree); err != nil {
			return Entitlement{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return Entitlement{}, err
	}
	return ent, nil
}

func (s *pgStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, userID string) (Entitlement, error) {
	var ent Entitlement
	var expiresAt sql.NullTime

	row := tx.QueryRowContext(ctx, `
SELECT user_id, plan, expires_at, trial_remaining FROM entitlements WHERE user_id = $1 FOR UPDATE`, userID)
	err := row.Scan(&ent.UserID, &ent.Plan, &expiresAt, &ent.TrialRemaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			ent = defaultEntitlement(userID)
			if _, err = tx.ExecContext(ctx, `
INSERT INTO entitlements (user_id, plan, expires_at, trial_remaining) VALUES ($1, $2, NULL, $3)`,
				userID, ent.Plan, ent.TrialRemaining); err != nil {
				return Entitlement{}, err
			}
			return ent, nil
		}
		return Entitlement{}, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		ent.ExpiresAt = &t
	}
	return ent, nil
}
