package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Network   NetworkConfig   `toml:"network"`
	Game      GameConfig      `toml:"game"`
	Logging   LoggingConfig   `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	ID        int    `toml:"id"`
	StartTime int64  // set at boot, not from config
}

type NetworkConfig struct {
	BindAddress     string        `toml:"bind_address"`
	MaxClients      int           `toml:"max_clients"`
	ReadTimeout     time.Duration `toml:"read_timeout"` // read-deadline poll window, NOT the idle timeout
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type GameConfig struct {
	WorldSeed           int64         `toml:"world_seed"` // 0 = randomize at boot
	MaxSpeed            float64       `toml:"max_speed"`  // px/s
	TickRate            float64       `toml:"tick_rate"`  // server ticks/s; MaxSpeed/TickRate = per-update move cap
	AttackRange         float64       `toml:"attack_range"`
	PickupRange         float64       `toml:"pickup_range"`
	MaxPlantingDistance float64       `toml:"max_planting_distance"`
	AttackCooldown      time.Duration `toml:"attack_cooldown"`
	PlayerAttackDamage  float64       `toml:"player_attack_damage"`
	HeartbeatTimeout    time.Duration `toml:"heartbeat_timeout"`
	InventorySyncEvery  time.Duration `toml:"inventory_sync_interval"`
	GhostAttackLimit    int           `toml:"ghost_attack_limit"`
	RespawnRadius       float64       `toml:"respawn_radius"` // player respawn scatter around origin
	ResourceRespawnTime time.Duration `toml:"resource_respawn_time"`
}

// MoveCap returns the maximum accepted distance for a single movement update.
func (g GameConfig) MoveCap() float64 {
	if g.TickRate <= 0 {
		return g.MaxSpeed
	}
	return g.MaxSpeed / g.TickRate
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type RateLimitConfig struct {
	Enabled           bool `toml:"enabled"`
	MessagesPerSecond int  `toml:"messages_per_second"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "GroveGO",
			ID:   1,
		},
		Network: NetworkConfig{
			BindAddress:     "0.0.0.0:9055",
			MaxClients:      100,
			ReadTimeout:     1 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Game: GameConfig{
			WorldSeed:           0,
			MaxSpeed:            250,
			TickRate:            5,
			AttackRange:         100,
			PickupRange:         50,
			MaxPlantingDistance: 300,
			AttackCooldown:      500 * time.Millisecond,
			PlayerAttackDamage:  10,
			HeartbeatTimeout:    15 * time.Second,
			InventorySyncEvery:  10 * time.Second,
			GhostAttackLimit:    10,
			RespawnRadius:       200,
			ResourceRespawnTime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			MessagesPerSecond: 100,
		},
	}
}
