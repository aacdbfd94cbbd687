package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/skyisle/islandfly/internal/config"
	"github.com/skyisle/islandfly/internal/core/event"
	coresys "github.com/skyisle/islandfly/internal/core/system"
	"github.com/skyisle/islandfly/internal/data"
	"github.com/skyisle/islandfly/internal/flight"
	"github.com/skyisle/islandfly/internal/handler"
	"github.com/skyisle/islandfly/internal/level"
	"github.com/skyisle/islandfly/internal/messages"
	"github.com/skyisle/islandfly/internal/persist"
	"github.com/skyisle/islandfly/internal/sched"
	"github.com/skyisle/islandfly/internal/scripting"
	"github.com/skyisle/islandfly/internal/system"
	"github.com/skyisle/islandfly/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            IslandFly  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      island flight permission server      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
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
	cfgPath := "config/islandfly.toml"
	if p := os.Getenv("ISLANDFLY_CONFIG"); p != "" {
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

	printBanner(cfg.Server.Name)

	// 3. Connect to PostgreSQL and run migrations
	printSection("database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")
	fmt.Println()

	// 4. Create repositories
	flightRepo := persist.NewFlightRepo(db)
	levelRepo := persist.NewLevelRepo(db)

	// 5. Load data and build world state
	printSection("data")

	worldState := world.NewState()
	islandTable, err := data.LoadIslandTable("data/yaml/island_list.yaml")
	if err != nil {
		return fmt.Errorf("load island table: %w", err)
	}
	seedIslands(worldState, islandTable, log)
	printStat("islands", worldState.IslandCount())

	msgs, err := messages.Load(cfg.Locales.Dir, cfg.Locales.Default, log)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	printOK("locales loaded")

	luaEngine, err := scripting.NewEngine(cfg.Scripts.Dir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("lua gate scripts loaded")
	fmt.Println()

	// 6. Wire up flight services
	levelSvc := level.New(levelRepo, log)
	scheduler := sched.New()
	hook := handler.NewPlayerHook(worldState, msgs)
	ledger := flight.NewLedger(flightRepo, scheduler, hook, log)
	checker := flight.NewChecker(cfg.Flight, worldState, levelSvc, luaEngine)

	// 7. Create event bus and register handlers
	bus := event.NewBus()
	deps := &handler.Deps{
		Config:   cfg,
		Log:      log,
		World:    worldState,
		Sched:    scheduler,
		Ledger:   ledger,
		Checker:  checker,
		Messages: msgs,
	}
	handler.Register(bus, deps)

	// 8. Create systems and register with runner
	runner := coresys.NewRunner()
	runner.Register(system.NewDispatchSystem(bus))
	runner.Register(system.NewSchedSystem(scheduler))
	runner.Register(system.NewAutosaveSystem(ledger, cfg.Flight.AutosaveInterval, log))

	// 9. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	printSection("server ready")
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Server.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Server.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
			ledger.StopAll(flushCtx)
			flushCancel()
			log.Info("server stopped")
			return nil
		}
	}
}

// seedIslands converts loaded island entries into live world state.
func seedIslands(ws *world.State, table *data.IslandTable, log *zap.Logger) {
	table.All(func(e *data.IslandEntry, owner uuid.UUID) {
		members := make(map[uuid.UUID]int, len(e.Members))
		for _, m := range e.Members {
			id, err := uuid.Parse(m.ID)
			if err != nil {
				log.Warn("island member: bad uuid",
					zap.String("island", e.ID), zap.String("member", m.ID))
				continue
			}
			members[id] = m.Rank
		}
		flags := make(map[string]int, len(e.Flags))
		for k, v := range e.Flags {
			flags[k] = v
		}
		ws.AddIsland(&world.IslandInfo{
			ID:              e.ID,
			World:           e.World,
			Owner:           owner,
			Spawn:           e.Spawn,
			CenterX:         e.CenterX,
			CenterZ:         e.CenterZ,
			Range:           e.Range,
			ProtectionRange: e.ProtectionRange,
			Members:         members,
			Flags:           flags,
		})
	})
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
