package game

import (
	"math/rand"
	"testing"

	"bitscape/internal/config"
	"bitscape/internal/game/spatial"
	"bitscape/internal/geom"
)

// =============================================================================
// BENCHMARK SUITE: CRITICAL PATH PERFORMANCE TESTS
// Run with: go test -bench=. -benchmem ./internal/game/...
// =============================================================================

// populate fills w with a deterministic mix of scenery and roaming creeps.
func populate(w *World, count int, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	cols, rows := int(w.Bounds().W), int(w.Bounds().H)
	species := []SpeciesID{SpeciesRock, SpeciesTree, SpeciesCoin, SpeciesCreep, SpeciesChaserCreep}

	for i := 0; i < count; i++ {
		e := mustMakeEntity(species[rng.Intn(len(species))])
		e.Frame.X = float32(rng.Intn(cols))
		e.Frame.Y = float32(rng.Intn(rows - 1))
		if e.Kind == KindMonster {
			e.Direction = geom.Direction(1 + rng.Intn(8))
			e.CurrentSpeed = 0.6
		}
		w.AddEntity(e)
	}
}

func newBenchWorld(size, count int) *World {
	w := NewWorld(config.Default(), 1, WithSize(size, size))
	for i := 0; i < config.MaxPlayers; i++ {
		hero := mustMakeEntity(SpeciesHero)
		hero.PlayerIndex = i
		hero.Frame.X = float32(size/2 + i)
		hero.Frame.Y = float32(size / 2)
		w.AddEntity(hero)
	}
	populate(w, count, 42)
	return w
}

// -----------------------------------------------------------------------------
// WORLD TICK BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkWorldTick_100Entities(b *testing.B)  { benchmarkWorldTick(b, 100) }
func BenchmarkWorldTick_500Entities(b *testing.B)  { benchmarkWorldTick(b, 500) }
func BenchmarkWorldTick_2000Entities(b *testing.B) { benchmarkWorldTick(b, 2000) }

func benchmarkWorldTick(b *testing.B, count int) {
	w := newBenchWorld(128, count)
	viewport := w.Bounds()
	input := []Input{{Direction: geom.Right}, {Direction: geom.Left}, {Direction: geom.Up}, {Direction: geom.Down}}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w.Tick(1.0/30, viewport, input)
	}
}

// BenchmarkWorldTick_Viewport measures the visible-set cull on a large map.
func BenchmarkWorldTick_Viewport(b *testing.B) {
	w := newBenchWorld(256, 5000)
	viewport := geom.Rect{X: 118, Y: 122, W: 20, H: 12}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w.Tick(1.0/30, viewport, nil)
	}
}

// -----------------------------------------------------------------------------
// ENGINE BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkEngineStep(b *testing.B) {
	engine := NewEngine(config.Default())
	w := NewWorld(config.Default(), 1, append(engine.WorldOptions(), WithSize(128, 128))...)
	hero := mustMakeEntity(SpeciesHero)
	hero.Frame.X, hero.Frame.Y = 64, 64
	w.AddEntity(hero)
	populate(w, 2000, 7)
	if err := engine.AddWorld(w); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		engine.Step(1.0 / 30)
	}
}

// -----------------------------------------------------------------------------
// HIT-GRID BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkHitGrid_Rebuild(b *testing.B) {
	w := newBenchWorld(128, 2000)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w.rebuildGrid()
	}
}

func BenchmarkHitGrid_QueryArea(b *testing.B) {
	grid := spatial.NewHitGrid(128, 128, 4096)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 4000; i++ {
		grid.Insert(spatial.Occupant{ID: uint32(i + 1), Flags: spatial.Rigid},
			geom.Rect{X: float32(rng.Intn(128)), Y: float32(rng.Intn(128)), W: 1, H: 1})
	}
	area := geom.Rect{X: 60, Y: 60, W: 3, H: 3}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = grid.QueryArea(area)
	}
}

// -----------------------------------------------------------------------------
// JOURNAL BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkNewEvent_Batch(b *testing.B) {
	coin := mustMakeEntity(SpeciesCoin)
	coin.ID = 9
	batch := coin.pickUpSequence(0)[0]

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := NewEvent(batch, uint64(i), 1); err != nil {
			b.Fatal(err)
		}
	}
}
