package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	if err := store.Create(ctx, &Session{Actor: "steve", Step: StepConfirm}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := store.Create(ctx, &Session{Actor: "steve"}); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("second Create() error = %v, want ErrSessionExists", err)
	}

	s, err := store.Get(ctx, "steve")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	s.Step = StepEmail
	if err := store.Put(ctx, s); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	got, _ := store.Get(ctx, "steve")
	if got.Step != StepEmail {
		t.Errorf("Step = %v, want %v", got.Step, StepEmail)
	}

	if err := store.Delete(ctx, "steve"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get(ctx, "steve"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Get() after Delete error = %v, want ErrNoSession", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Create(ctx, &Session{Actor: "old", UpdatedAt: now.Add(-2 * time.Minute)})
	store.Create(ctx, &Session{Actor: "fresh", UpdatedAt: now})

	// An expired session does not block a new one.
	if err := store.Create(ctx, &Session{Actor: "old", UpdatedAt: now.Add(-2 * time.Minute)}); err != nil {
		t.Fatalf("Create() over expired session failed: %v", err)
	}

	removed, err := store.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Errorf("Get(fresh) failed: %v", err)
	}
}
