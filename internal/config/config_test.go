package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Network.MaxClients != 100 {
		t.Fatalf("max clients = %d, want 100", cfg.Network.MaxClients)
	}
	if cfg.Game.HeartbeatTimeout != 15*time.Second {
		t.Fatalf("heartbeat timeout = %v, want 15s", cfg.Game.HeartbeatTimeout)
	}
	if cfg.Game.GhostAttackLimit != 10 {
		t.Fatalf("ghost attack limit = %d, want 10", cfg.Game.GhostAttackLimit)
	}
	if cfg.RateLimit.MessagesPerSecond != 100 {
		t.Fatalf("rate limit = %d, want 100", cfg.RateLimit.MessagesPerSecond)
	}
}

func TestMoveCap(t *testing.T) {
	g := GameConfig{MaxSpeed: 250, TickRate: 5}
	if got := g.MoveCap(); got != 50 {
		t.Fatalf("move cap = %.1f, want 50", got)
	}

	// A zero tick rate must not divide by zero.
	g = GameConfig{MaxSpeed: 250}
	if got := g.MoveCap(); got != 250 {
		t.Fatalf("move cap with zero tick rate = %.1f, want 250", got)
	}
}

func TestLoadOverridesAndKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	src := `[network]
bind_address = "127.0.0.1:7777"
max_clients = 8

[game]
world_seed = 99
ghost_attack_limit = 4
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network.BindAddress != "127.0.0.1:7777" || cfg.Network.MaxClients != 8 {
		t.Fatalf("network overrides lost: %+v", cfg.Network)
	}
	if cfg.Game.WorldSeed != 99 || cfg.Game.GhostAttackLimit != 4 {
		t.Fatalf("game overrides lost: %+v", cfg.Game)
	}

	// Keys absent from the file keep their defaults.
	if cfg.Game.MaxSpeed != 250 || cfg.Game.HeartbeatTimeout != 15*time.Second {
		t.Fatalf("defaults lost for absent keys: %+v", cfg.Game)
	}
	if cfg.Server.StartTime == 0 {
		t.Fatal("start time not stamped")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("missing config loaded without error")
	}
}
