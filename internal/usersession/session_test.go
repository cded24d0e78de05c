package usersession

import (
	"context"
	"errors"
	"testing"
	"time"

	"autocontent/internal/profile"
)

func TestInitLoadsProfileAndAppliesFreeReset(t *testing.T) {
	ctx := context.Background()
	store := profile.NewMemoryStore()
	stale := time.Now().UTC().Add(-100 * time.Hour)
	if err := store.Upsert(ctx, profile.Profile{
		ID: "u", Plan: profile.PlanFree, Credits: 0, LastFreeReset: stale,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sess := New(store)
	if sess.Active() {
		t.Fatalf("session active before init")
	}
	if err := sess.Init(ctx, "u"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !sess.Active() {
		t.Fatalf("session not active after init")
	}
	if got := sess.Profile().Credits; got != profile.FreeTierCredits {
		t.Fatalf("credits after refill: got %d want %d", got, profile.FreeTierCredits)
	}
}

func TestInitUnknownUser(t *testing.T) {
	sess := New(profile.NewMemoryStore())
	err := sess.Init(context.Background(), "ghost")
	if !errors.Is(err, profile.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if sess.Active() {
		t.Fatalf("failed init left the session active")
	}
}

func TestRefreshTracksStore(t *testing.T) {
	ctx := context.Background()
	store := profile.NewMemoryStore()
	if err := store.Upsert(ctx, profile.Profile{ID: "u", Plan: profile.PlanMonthly, Credits: 7}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sess := New(store)
	if err := sess.Init(ctx, "u"); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SetCredits(ctx, "u", 2, time.Time{}); err != nil {
		t.Fatalf("set credits: %v", err)
	}
	if err := sess.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := sess.Profile().Credits; got != 2 {
		t.Fatalf("credits after refresh: got %d want 2", got)
	}
}

func TestRefreshBeforeInit(t *testing.T) {
	sess := New(profile.NewMemoryStore())
	if err := sess.Refresh(context.Background()); err == nil {
		t.Fatalf("expected error refreshing an uninitialized session")
	}
}

func TestTeardownClearsState(t *testing.T) {
	ctx := context.Background()
	store := profile.NewMemoryStore()
	if err := store.Upsert(ctx, profile.Profile{ID: "u", Plan: profile.PlanMonthly}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	sess := New(store)
	if err := sess.Init(ctx, "u"); err != nil {
		t.Fatalf("init: %v", err)
	}
	sess.Teardown()
	if sess.Active() {
		t.Fatalf("session active after teardown")
	}
	if sess.Profile().ID != "" {
		t.Fatalf("profile survived teardown")
	}
}
