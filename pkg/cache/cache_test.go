package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNilCacheAlwaysMisses(t *testing.T) {
	c := New(nil, "claims:", time.Minute)
	if c != nil {
		t.Fatalf("expected nil cache for nil client")
	}

	var out map[string]string
	if err := c.Get(context.Background(), "k", &out); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
	if err := c.Set(context.Background(), "k", map[string]string{"a": "b"}); err != nil {
		t.Fatalf("Set on nil cache: %v", err)
	}
	if err := c.Delete(context.Background(), "k"); err != nil {
		t.Fatalf("Delete on nil cache: %v", err)
	}
}
