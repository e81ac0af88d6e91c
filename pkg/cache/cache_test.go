package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get() on empty cache hit")
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get() = %q, %v, %v; want v, true, nil", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() error: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() of missing key error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get() after Delete() hit")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry missed")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry hit")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("k")
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	_ = os.WriteFile(path, []byte("{"), 0644)

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get() corrupt = %v, %v; want silent miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("Clear() left %d entries", len(entries))
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1"}); err == nil {
		t.Error("NewRedisCache() on a closed port succeeded")
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("a")) != Hash([]byte("a")) {
		t.Error("Hash is not deterministic")
	}
	if Hash([]byte("a")) == Hash([]byte("b")) {
		t.Error("different inputs hash equal")
	}
	if n := len(Hash(nil)); n != 64 {
		t.Errorf("len(Hash) = %d, want 64", n)
	}
}

func TestKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	tests := []struct {
		name string
		a, b string
	}{
		{"matrix", k.PredictionKey("m1", "h"), k.PredictionKey("m2", "h")},
		{"graph", k.PredictionKey("m", "h1"), k.PredictionKey("m", "h2")},
		{"kind", k.AnalyticsKey("variants", "m", "h"), k.AnalyticsKey("metrics", "m", "h")},
		{"namespace", k.PredictionKey("m", "h"), k.AnalyticsKey("", "m", "h")},
	}
	for _, tt := range tests {
		if tt.a == tt.b {
			t.Errorf("%s: keys collide: %s", tt.name, tt.a)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "s1:")
	want := "s1:" + NewDefaultKeyer().PredictionKey("m", "h")
	if got := scoped.PredictionKey("m", "h"); got != want {
		t.Errorf("PredictionKey() = %s, want %s", got, want)
	}
	if got := scoped.AnalyticsKey("variants", "m", "h"); got[:3] != "s1:" {
		t.Errorf("AnalyticsKey() = %s, want s1: prefix", got)
	}
}
