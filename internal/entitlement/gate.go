// Package entitlement decides whether an account may run a generation
// and records consumption afterwards. Admission is a pure check on the
// profile snapshot; the debit is a server-authoritative operation on
// the remote store.
package entitlement

import (
	"context"
	"errors"
	"log"

	"autocontent/internal/profile"
	"autocontent/internal/template"
)

// ErrTierRequired means the account's plan tier does not unlock the
// requested operation; credits are irrelevant to it.
var ErrTierRequired = errors.New("entitlement: plan tier does not allow this operation")

// Credit costs per artifact kind. Image generation runs on a heavier
// upstream model.
const (
	CostImage = 5
	CostText  = 1
)

// Cost returns the credit cost for producing the given output type.
func Cost(out template.OutputType) int {
	if out == template.OutputImage {
		return CostImage
	}
	return CostText
}

// Gate performs admission checks and debits against the profile store.
type Gate struct {
	store profile.Store
}

func NewGate(store profile.Store) *Gate {
	return &Gate{store: store}
}

// Authorize reports whether the snapshot admits a generation of the
// given kind. It performs no side effects; call Charge after the
// generation succeeds. The returned error is
// profile.ErrInsufficientCredits when the balance cannot cover the
// cost, which callers surface as an upgrade prompt rather than a
// retry.
func (g *Gate) Authorize(p profile.Profile, out template.OutputType) error {
	if p.Unlimited() {
		return nil
	}
	if p.Credits < Cost(out) {
		return profile.ErrInsufficientCredits
	}
	return nil
}

// Charge debits the cost of a completed generation. The store computes
// the subtraction atomically and returns the authoritative balance,
// which replaces the snapshot's; the client never trusts its own
// arithmetic as final. When the debit fails, the snapshot is
// reconciled against a fresh read so an optimistic UI update is
// reverted.
func (g *Gate) Charge(ctx context.Context, p *profile.Profile, out template.OutputType) error {
	if p.Unlimited() {
		return nil
	}
	remaining, err := g.store.Debit(ctx, p.ID, Cost(out))
	if err != nil {
		if fresh, ferr := g.store.Get(ctx, p.ID); ferr == nil {
			p.Credits = fresh.Credits
		} else {
			log.Printf("entitlement: reconcile fetch failed for %s: %v", p.ID, ferr)
		}
		return err
	}
	p.Credits = remaining
	return nil
}

// AuthorizeTemplate checks the tier restriction a template declares
// (min_plan), independent of credits. Master templates require the
// elevated tier.
func (g *Gate) AuthorizeTemplate(p profile.Profile, tpl *template.Template) error {
	switch tpl.MinPlan {
	case "":
		return nil
	case "master":
		if !p.Master() {
			return ErrTierRequired
		}
		return nil
	default:
		if !p.Unlimited() {
			return ErrTierRequired
		}
		return nil
	}
}

// AuthorizeRefinement gates the refinement loop: a binary tier check,
// no credit deduction.
func (g *Gate) AuthorizeRefinement(p profile.Profile) error {
	if !p.Unlimited() {
		return ErrTierRequired
	}
	return nil
}
