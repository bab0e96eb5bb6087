package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/grovego/server/internal/biome"
	"github.com/grovego/server/internal/config"
	"github.com/grovego/server/internal/data"
	"github.com/grovego/server/internal/handler"
	gonet "github.com/grovego/server/internal/net"
	"github.com/grovego/server/internal/respawn"
	"github.com/grovego/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            GroveGO  v0.1.0                \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      樹林生存 · Go 遊戲伺服器             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	// Use display width for CJK characters (each CJK char = 2 columns)
	displayWidth := 0
	for _, r := range title {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	lineLen := 46 - displayWidth - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	displayWidth := 0
	for _, r := range label {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	dotsLen := 42 - displayWidth - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("GROVEGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. World seed (0 = randomize)
	seed := cfg.Game.WorldSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
		log.Info("世界種子已隨機產生", zap.Int64("seed", seed))
	}

	// 4. Load data tables
	printSection("資料載入")

	itemTable, err := data.LoadItemTable("data/yaml/item_list.yaml")
	if err != nil {
		log.Warn("道具表載入失敗，改用內建定義", zap.Error(err))
		itemTable = data.DefaultItemTable()
	}
	printStat("道具模板", itemTable.Count())

	dropTable, err := data.LoadDropTable("data/yaml/tree_drops.yaml")
	if err != nil {
		log.Warn("掉落表載入失敗，改用內建定義", zap.Error(err))
		dropTable = data.DefaultDropTable()
	}
	printStat("掉落表", dropTable.Count())

	// 5. World registry + collaborators
	classifier := biome.NewNoiseClassifier(seed)
	registry := world.NewRegistry(seed, classifier)
	registry.SetRainZones(makeRainZones(seed))

	scheduler := respawn.NewScheduler(log)
	go scheduler.Run()
	defer scheduler.Close()
	printOK("重生排程器啟動")

	// 6. Gateway + network server
	deps := &handler.Deps{
		Config:  cfg,
		Log:     log,
		World:   registry,
		Respawn: scheduler,
		Items:   itemTable,
		Drops:   dropTable,
		ScheduleRespawn: func(kind, id, resourceType string, x, y float64) {
			scheduler.Schedule(kind, id, resourceType, x, y, cfg.Game.ResourceRespawnTime)
		},
	}
	gateway := handler.NewGateway(deps)

	server, err := gonet.NewServer(cfg, gateway, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	deps.Router = gonet.NewRouter(server, log)
	scheduler.Subscribe(gateway.HandleRespawn)

	go server.AcceptLoop()

	fmt.Println()
	printSection("伺服器就緒")
	printReady(fmt.Sprintf("監聽位址 %s", server.Addr().String()))
	printReady(fmt.Sprintf("世界種子 %d", seed))
	fmt.Println()

	// 7. Wait for shutdown signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdownCh

	log.Info("收到關閉信號", zap.String("signal", sig.String()))
	server.Stop()
	log.Info("伺服器已停止")
	return nil
}

// makeRainZones derives the passive environmental zones from the world
// seed so clients computing the same world see the same weather.
func makeRainZones(seed int64) []world.RainZone {
	rng := rand.New(rand.NewSource(seed ^ 0x5DEECE66D))
	zones := make([]world.RainZone, 0, 3)
	for i := 0; i < 3; i++ {
		zones = append(zones, world.RainZone{
			X:      (rng.Float64()*2 - 1) * 4000,
			Y:      (rng.Float64()*2 - 1) * 4000,
			Width:  600 + rng.Float64()*900,
			Height: 600 + rng.Float64()*900,
		})
	}
	return zones
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
