package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"bitscape/internal/api"
	"bitscape/internal/config"
	"bitscape/internal/game"
	"bitscape/internal/logging"
	"bitscape/internal/storage"
	"bitscape/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; the parent directory wins for local runs
	envErr := godotenv.Load("../.env")
	if envErr != nil {
		envErr = godotenv.Load(".env")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Info("💡 no .env file found, using environment variables only")
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("❌ server failed", zap.Error(err))
	}
	logger.Info("👋 goodbye")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if stop := startProfile(cfg.Profile, logger); stop != nil {
		defer stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("⚠️ tracer shutdown", zap.Error(err))
		}
	}()

	opts := []game.EngineOption{
		game.WithEngineLogger(logger),
		game.WithTracer(telemetry.Tracer("engine")),
	}

	if cfg.Storage.Path != "" {
		store, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		defer store.Close()
		opts = append(opts, game.WithEngineStore(store))
		logger.Info("💾 store opened", zap.String("path", store.Path()))
	} else {
		logger.Warn("⚠️ STORAGE_PATH not set, progress is kept in memory")
	}

	if cfg.EventLog.Path != "" {
		eventLog := game.NewEventLog(cfg.EventLog)
		if err := eventLog.Start(cfg.EventLog.Path); err != nil {
			logger.Warn("⚠️ event log disabled", zap.Error(err))
		} else {
			defer eventLog.Stop()
			opts = append(opts, game.WithEventLog(eventLog))
			logger.Info("📝 event log", zap.String("path", cfg.EventLog.Path))
		}
	}

	engine := game.NewEngine(cfg, opts...)
	if err := loadWorlds(engine, cfg, logger); err != nil {
		return err
	}

	debug := api.StartDebugServer(cfg.Server.DebugAddr, logger)
	server := api.NewServer(engine, cfg.Server, logger)

	engine.Start()
	defer engine.Stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	logger.Info("✅ server ready, press Ctrl+C to stop",
		zap.String("addr", cfg.Server.Addr),
		zap.Uint32s("worlds", engine.WorldIDs()))

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	logger.Info("🛑 shutting down")
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := server.Shutdown(sctx); err != nil {
		logger.Warn("⚠️ api shutdown", zap.Error(err))
	}
	if debug != nil {
		debug.Shutdown(sctx)
	}
	return nil
}

// loadWorlds hosts every *.json file in the worlds directory. When the
// start world has no hero for player 0, one is placed in its middle.
func loadWorlds(engine *game.Engine, cfg *config.Config, logger *zap.Logger) error {
	files, err := filepath.Glob(filepath.Join(cfg.Worlds.Dir, "*.json"))
	if err != nil {
		return fmt.Errorf("worlds: %w", err)
	}
	sort.Strings(files)

	var start *game.World
	for _, path := range files {
		w, err := loadWorldFile(path, engine, cfg)
		if err != nil {
			return err
		}
		if err := engine.AddWorld(w); err != nil {
			return fmt.Errorf("world %s: %w", path, err)
		}
		if w.ID() == cfg.Worlds.Start {
			start = w
		}
		logger.Info("🗺️ world loaded", zap.String("file", path), zap.Uint32("id", w.ID()), zap.Int("entities", w.Len()))
	}

	if start == nil {
		start = game.NewWorld(cfg, cfg.Worlds.Start, engine.WorldOptions()...)
		if err := engine.AddWorld(start); err != nil {
			return fmt.Errorf("start world: %w", err)
		}
		logger.Warn("⚠️ no start world on disk, hosting an empty one", zap.Uint32("id", cfg.Worlds.Start))
	}
	if _, ok := engine.PlayerWorld(0); ok {
		return nil
	}

	bounds := start.Bounds()
	hero, err := game.MakeEntityAt(game.SpeciesHero, int(bounds.W)/2, int(bounds.H)/2)
	if err != nil {
		return err
	}
	start.AddEntity(hero)
	return nil
}

func loadWorldFile(path string, engine *game.Engine, cfg *config.Config) (*game.World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("world %s: %w", path, err)
	}
	defer f.Close()

	w, err := game.LoadWorld(f, cfg, engine.WorldOptions()...)
	if err != nil {
		return nil, fmt.Errorf("world %s: %w", path, err)
	}
	return w, nil
}

// startProfile starts github.com/pkg/profile when PROFILE_MODE is set and
// returns its stop function.
func startProfile(cfg config.ProfileConfig, logger *zap.Logger) func() {
	var mode func(*profile.Profile)
	switch cfg.Mode {
	case "":
		return nil
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "block":
		mode = profile.BlockProfile
	case "mutex":
		mode = profile.MutexProfile
	case "trace":
		mode = profile.TraceProfile
	default:
		logger.Warn("⚠️ unknown profile mode", zap.String("mode", cfg.Mode))
		return nil
	}

	p := profile.Start(mode, profile.ProfilePath(cfg.Path), profile.NoShutdownHook, profile.Quiet)
	logger.Info("⏱️ profiling", zap.String("mode", cfg.Mode), zap.String("path", cfg.Path))
	return p.Stop
}
