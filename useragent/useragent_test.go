package useragent

import "testing"

func TestRotatorNoConsecutiveRepeats(t *testing.T) {
	pool := []string{"agent-a", "agent-b", "agent-c"}
	rotator := NewRotator(pool, true)

	previous := rotator.Next()
	for i := 0; i < 20; i++ {
		current := rotator.Next()
		if current == previous {
			t.Fatalf("consecutive calls returned %q twice", current)
		}
		previous = current
	}
}

func TestRotatorDisabledReturnsFirst(t *testing.T) {
	pool := []string{"agent-a", "agent-b"}
	rotator := NewRotator(pool, false)

	for i := 0; i < 5; i++ {
		if got := rotator.Next(); got != "agent-a" {
			t.Fatalf("Next() = %q, want agent-a", got)
		}
	}
}

func TestRotatorEmptyPoolUsesDefaults(t *testing.T) {
	rotator := NewRotator(nil, true)
	if got := rotator.Next(); got == "" {
		t.Fatalf("Next() returned empty string")
	}
}

func TestRotatorSingleEntryPool(t *testing.T) {
	rotator := NewRotator([]string{"only"}, true)
	if got := rotator.Next(); got != "only" {
		t.Fatalf("Next() = %q, want only", got)
	}
	if got := rotator.Next(); got != "only" {
		t.Fatalf("Next() = %q, want only", got)
	}
}
