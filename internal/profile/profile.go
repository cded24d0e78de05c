// Package profile models the remote user record that carries the
// account's entitlement: a credit balance and a plan tier. The record
// is owned by the hosted backend; this package is the client view of
// it with last-write-wins semantics, except for debits, which are
// server-authoritative.
package profile

import (
	"context"
	"errors"
	"time"
)

// Plan enumerates the account tiers sold by the checkout flow.
type Plan string

const (
	PlanFree          Plan = "free"
	PlanCreditsPack   Plan = "credits_pack"
	PlanMonthly       Plan = "monthly"
	PlanMasterMonthly Plan = "master_monthly"
	PlanYearly        Plan = "yearly"
	PlanIndividual    Plan = "individual_purchase"
)

const (
	// FreeTierCredits is the balance restored to free accounts.
	FreeTierCredits = 5
	// FreeResetInterval is how long a free account waits between
	// credit refills.
	FreeResetInterval = 72 * time.Hour
)

var (
	ErrNotFound = errors.New("profile: not found")
	// ErrInsufficientCredits means the balance cannot cover the
	// requested debit. Callers route this to an upgrade flow, not a
	// retry flow.
	ErrInsufficientCredits = errors.New("profile: insufficient credits")
)

// Profile is the user record referenced by the generation pipeline.
type Profile struct {
	ID            string
	Email         string
	Name          string
	Credits       int
	Plan          Plan
	Admin         bool
	LastFreeReset time.Time
}

// Unlimited reports whether the plan bypasses the credit check
// entirely (any subscription, or an admin account).
func (p Profile) Unlimited() bool {
	switch p.Plan {
	case PlanMonthly, PlanMasterMonthly, PlanYearly:
		return true
	}
	return p.Admin
}

// Master reports whether the account holds the elevated tier that
// unlocks master templates.
func (p Profile) Master() bool {
	return p.Plan == PlanMasterMonthly || p.Plan == PlanYearly || p.Admin
}

// FreeResetDue reports whether a free account is owed its periodic
// credit refill.
func (p Profile) FreeResetDue(now time.Time) bool {
	if p.Plan != PlanFree {
		return false
	}
	return p.LastFreeReset.IsZero() || now.Sub(p.LastFreeReset) >= FreeResetInterval
}

// Store is the remote profile record service.
type Store interface {
	// Get reads the authoritative record.
	Get(ctx context.Context, id string) (Profile, error)
	// Debit atomically subtracts cost from the balance and returns the
	// new authoritative balance. The server computes the subtraction;
	// ErrInsufficientCredits is returned without changing the record
	// when the balance cannot cover it.
	Debit(ctx context.Context, id string, cost int) (remaining int, err error)
	// SetCredits overwrites the balance, used by the free-tier refill
	// and by checkout top-ups.
	SetCredits(ctx context.Context, id string, credits int, resetAt time.Time) error
	// Upsert writes the full record.
	Upsert(ctx context.Context, p Profile) error
}

// MaybeResetFree applies the periodic free-tier refill to the record
// and persists it. It returns the possibly-updated profile.
func MaybeResetFree(ctx context.Context, store Store, p Profile, now time.Time) (Profile, error) {
	if !p.FreeResetDue(now) {
		return p, nil
	}
	p.Credits = FreeTierCredits
	p.LastFreeReset = now
	if err := store.SetCredits(ctx, p.ID, p.Credits, p.LastFreeReset); err != nil {
		return p, err
	}
	return p, nil
}
