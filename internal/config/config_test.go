package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValues(t *testing.T) {
	c := Default()
	if c.Address != ":10000" {
		t.Fatalf("Address = %q, want :10000", c.Address)
	}
	if c.QueueCapacity != 10 {
		t.Fatalf("QueueCapacity = %d, want 10", c.QueueCapacity)
	}
	if time.Duration(c.DateCacheInterval) != time.Second {
		t.Fatalf("DateCacheInterval = %v, want 1s", time.Duration(c.DateCacheInterval))
	}
}

func TestLoadPartialAppliesDefaults(t *testing.T) {
	c, err := Load([]byte(`{"address": ":9090"}`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Address != ":9090" {
		t.Fatalf("Address = %q, want :9090", c.Address)
	}
	if c.QueueCapacity != DefaultQueueCapacity {
		t.Fatalf("QueueCapacity = %d, want default %d", c.QueueCapacity, DefaultQueueCapacity)
	}
}

func TestDurationRoundTrip(t *testing.T) {
	c := Default()
	c.ShutdownTimeout = Duration(5 * time.Second)
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}
	if time.Duration(back.ShutdownTimeout) != 5*time.Second {
		t.Fatalf("ShutdownTimeout = %v, want 5s", time.Duration(back.ShutdownTimeout))
	}
}

func TestLoadFromWorkingDirMissingFileReturnsDefaults(t *testing.T) {
	c, err := LoadFromWorkingDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if c.Address != Default().Address {
		t.Fatalf("Address = %q, want default", c.Address)
	}
}

func TestLoadFromWorkingDirReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"name": "custom", "address": ":7070"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFromWorkingDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "custom" || c.Address != ":7070" {
		t.Fatalf("c = %+v, want name=custom address=:7070", c)
	}
}
