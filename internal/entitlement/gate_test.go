package entitlement

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocontent/internal/profile"
	"autocontent/internal/template"
)

func seededStore(t *testing.T, p profile.Profile) *profile.MemoryStore {
	t.Helper()
	store := profile.NewMemoryStore()
	require.NoError(t, store.Upsert(context.Background(), p))
	return store
}

func TestCost(t *testing.T) {
	assert.Equal(t, 5, Cost(template.OutputImage))
	assert.Equal(t, 1, Cost(template.OutputText))
	assert.Equal(t, 1, Cost(template.OutputSite))
}

func TestAuthorizeChecksBalanceAgainstCost(t *testing.T) {
	gate := NewGate(profile.NewMemoryStore())
	p := profile.Profile{ID: "u", Credits: 4, Plan: profile.PlanFree}

	assert.NoError(t, gate.Authorize(p, template.OutputText))
	assert.ErrorIs(t, gate.Authorize(p, template.OutputImage), profile.ErrInsufficientCredits)
}

func TestAuthorizeUnlimitedIgnoresBalance(t *testing.T) {
	gate := NewGate(profile.NewMemoryStore())
	p := profile.Profile{ID: "u", Credits: 0, Plan: profile.PlanMonthly}

	assert.NoError(t, gate.Authorize(p, template.OutputImage))
}

func TestChargeUsesAuthoritativeBalance(t *testing.T) {
	p := profile.Profile{ID: "u", Credits: 10, Plan: profile.PlanFree}
	gate := NewGate(seededStore(t, p))

	require.NoError(t, gate.Charge(context.Background(), &p, template.OutputImage))
	assert.Equal(t, 5, p.Credits)
}

func TestChargeUnlimitedIsANoOp(t *testing.T) {
	store := profile.NewMemoryStore()
	gate := NewGate(store)
	p := profile.Profile{ID: "u", Credits: 3, Plan: profile.PlanYearly}

	require.NoError(t, gate.Charge(context.Background(), &p, template.OutputImage))
	assert.Equal(t, 3, p.Credits)
}

func TestChargeReconcilesAfterFailedDebit(t *testing.T) {
	// The snapshot believes it has 10 credits but the server says 2, so
	// the image debit fails and the snapshot is corrected.
	server := profile.Profile{ID: "u", Credits: 2, Plan: profile.PlanFree}
	gate := NewGate(seededStore(t, server))

	snapshot := profile.Profile{ID: "u", Credits: 10, Plan: profile.PlanFree}
	err := gate.Charge(context.Background(), &snapshot, template.OutputImage)
	require.ErrorIs(t, err, profile.ErrInsufficientCredits)
	assert.Equal(t, 2, snapshot.Credits)
}

func TestAuthorizeTemplateTiers(t *testing.T) {
	gate := NewGate(profile.NewMemoryStore())
	open := &template.Template{ID: "open"}
	master := &template.Template{ID: "locked", MinPlan: "master"}

	free := profile.Profile{ID: "u", Plan: profile.PlanFree}
	monthly := profile.Profile{ID: "u", Plan: profile.PlanMonthly}
	masterMonthly := profile.Profile{ID: "u", Plan: profile.PlanMasterMonthly}
	admin := profile.Profile{ID: "u", Plan: profile.PlanFree, Admin: true}

	assert.NoError(t, gate.AuthorizeTemplate(free, open))
	assert.ErrorIs(t, gate.AuthorizeTemplate(free, master), ErrTierRequired)
	assert.ErrorIs(t, gate.AuthorizeTemplate(monthly, master), ErrTierRequired)
	assert.NoError(t, gate.AuthorizeTemplate(masterMonthly, master))
	assert.NoError(t, gate.AuthorizeTemplate(admin, master))
}

func TestAuthorizeRefinementIsSubscriberOnly(t *testing.T) {
	gate := NewGate(profile.NewMemoryStore())

	free := profile.Profile{ID: "u", Plan: profile.PlanFree, Credits: 100}
	err := gate.AuthorizeRefinement(free)
	require.ErrorIs(t, err, ErrTierRequired)
	assert.False(t, errors.Is(err, profile.ErrInsufficientCredits))

	assert.NoError(t, gate.AuthorizeRefinement(profile.Profile{ID: "u", Plan: profile.PlanMonthly}))
}
