package cache

import (
	"testing"
	"time"
)

func TestGetEmpty(t *testing.T) {
	c := New[string]()
	if v, ok := c.Get(); ok {
		t.Errorf("expected miss on empty cache, got %q", v)
	}
}

func TestSetGet(t *testing.T) {
	c := New[string]()
	c.Set("playlist", time.Minute)
	v, ok := c.Get()
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if v != "playlist" {
		t.Errorf("expected 'playlist', got %q", v)
	}
}

func TestExpiry(t *testing.T) {
	c := New[int]()
	c.Set(42, -time.Second) // already expired
	if _, ok := c.Get(); ok {
		t.Error("expected miss for expired entry")
	}
}

func TestClear(t *testing.T) {
	c := New[int]()
	c.Set(7, time.Minute)
	c.Clear()
	if _, ok := c.Get(); ok {
		t.Error("expected miss after Clear")
	}
}
