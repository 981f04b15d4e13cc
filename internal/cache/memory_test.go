package cache

import (
	"context"
	"errors"
	"sort"
	"testing"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	t.Run("get miss", func(t *testing.T) {
		if _, err := m.Get(ctx, "nope"); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		if err := m.Set(ctx, "k", []byte("v1")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := m.Set(ctx, "k", []byte("v2")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		v, err := m.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(v) != "v2" {
			t.Errorf("Get = %q, want v2", v)
		}
	})

	t.Run("scan by prefix", func(t *testing.T) {
		m.Set(ctx, "user:1:account:a", []byte("x"))
		m.Set(ctx, "user:1:account:b", []byte("x"))
		m.Set(ctx, "user:2:account:c", []byte("x"))

		keys, err := m.ScanKeys(ctx, "user:1:account:")
		if err != nil {
			t.Fatalf("ScanKeys failed: %v", err)
		}
		sort.Strings(keys)
		if len(keys) != 2 || keys[0] != "user:1:account:a" || keys[1] != "user:1:account:b" {
			t.Errorf("ScanKeys = %v", keys)
		}
	})

	t.Run("stored values are copies", func(t *testing.T) {
		buf := []byte("original")
		m.Set(ctx, "copy", buf)
		buf[0] = 'X'
		v, _ := m.Get(ctx, "copy")
		if string(v) != "original" {
			t.Errorf("stored value aliased caller buffer: %q", v)
		}
	})
}

func TestKeyHelpers(t *testing.T) {
	if got := AccountKey("u1", "a1"); got != "user:u1:account:a1" {
		t.Errorf("AccountKey = %q", got)
	}
	if got := AccountKeyPrefix("u1"); got != "user:u1:account:" {
		t.Errorf("AccountKeyPrefix = %q", got)
	}
	if got := CurrentAccountKey("u1"); got != "user:u1:current_account" {
		t.Errorf("CurrentAccountKey = %q", got)
	}
}
