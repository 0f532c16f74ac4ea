// Command replay rebuilds a world from its data file and an event journal
// and reports what it applied.
package main

import (
	"flag"
	"fmt"
	"os"

	"bitscape/internal/config"
	"bitscape/internal/game"
	"bitscape/internal/logging"

	"go.uber.org/zap"
)

func main() {
	var worldPath, journalPath string
	flag.StringVar(&worldPath, "world", "", "world data file (JSON)")
	flag.StringVar(&journalPath, "journal", "events.jsonl", "event journal (JSONL)")
	flag.Parse()

	if worldPath == "" {
		fmt.Fprintln(os.Stderr, "--world is required")
		os.Exit(1)
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

	if err := run(cfg, logger, worldPath, journalPath); err != nil {
		logger.Fatal("❌ replay failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, worldPath, journalPath string) error {
	wf, err := os.Open(worldPath)
	if err != nil {
		return fmt.Errorf("open world: %w", err)
	}
	defer wf.Close()

	w, err := game.LoadWorld(wf, cfg, game.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("load world: %w", err)
	}

	jf, err := os.Open(journalPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jf.Close()

	events, bad, err := game.ReadEvents(jf)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	if bad > 0 {
		logger.Warn("⚠️ malformed journal lines skipped", zap.Int("lines", bad))
	}

	before := w.Len()
	stats := game.Replay(w, events)

	logger.Info("🔁 replay complete",
		zap.Uint32("world", w.ID()),
		zap.Int("events", len(events)),
		zap.Int("ticks", stats.Ticks),
		zap.Int("applied", stats.Applied),
		zap.Int("skipped", stats.Skipped),
		zap.Int("entities_before", before),
		zap.Int("entities_after", w.Len()),
		zap.Uint64("tick", w.TickCount()))
	return nil
}
