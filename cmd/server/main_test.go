package main

import (
	"testing"

	"bitscape/internal/config"
	"bitscape/internal/game"

	"go.uber.org/zap"
)

func TestLoadWorldsFromDisk(t *testing.T) {
	cfg := config.Default()
	cfg.Worlds.Dir = "../../worlds"
	engine := game.NewEngine(cfg)

	if err := loadWorlds(engine, cfg, zap.NewNop()); err != nil {
		t.Fatalf("loadWorlds failed: %v", err)
	}

	ids := engine.WorldIDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Errorf("Expected worlds [1 2], got %v", ids)
	}
	if world, ok := engine.PlayerWorld(0); !ok || world != 1 {
		t.Errorf("Expected player 0 in world 1, got %d (%v)", world, ok)
	}
}

func TestLoadWorldsWithoutFiles(t *testing.T) {
	cfg := config.Default()
	cfg.Worlds.Dir = t.TempDir()
	engine := game.NewEngine(cfg)

	if err := loadWorlds(engine, cfg, zap.NewNop()); err != nil {
		t.Fatalf("loadWorlds failed: %v", err)
	}

	if world, ok := engine.PlayerWorld(0); !ok || world != cfg.Worlds.Start {
		t.Errorf("Expected a hero in the start world, got %d (%v)", world, ok)
	}
}

func TestStartProfileIgnoresUnknownMode(t *testing.T) {
	if stop := startProfile(config.ProfileConfig{Mode: "gpu"}, zap.NewNop()); stop != nil {
		t.Error("Expected no profiler for an unknown mode")
	}
	if stop := startProfile(config.ProfileConfig{}, zap.NewNop()); stop != nil {
		t.Error("Expected no profiler when disabled")
	}
}
