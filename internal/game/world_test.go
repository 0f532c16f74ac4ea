package game

import (
	"math"
	"testing"

	"bitscape/internal/config"
	"bitscape/internal/geom"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestWorld(t *testing.T, cols, rows int, opts ...WorldOption) *World {
	t.Helper()
	opts = append([]WorldOption{WithSize(cols, rows)}, opts...)
	return NewWorld(config.Default(), 1, opts...)
}

func spawn(t *testing.T, w *World, species SpeciesID, col, row int) *Entity {
	t.Helper()
	e, err := MakeEntityAt(species, col, row)
	if err != nil {
		t.Fatalf("MakeEntityAt(%d) failed: %v", species, err)
	}
	w.AddEntity(e)
	return e
}

func spawnHero(t *testing.T, w *World, playerIndex, col, row int) *Entity {
	t.Helper()
	hero, err := MakeEntityAt(SpeciesHero, col, row)
	if err != nil {
		t.Fatalf("MakeEntityAt(hero) failed: %v", err)
	}
	hero.PlayerIndex = playerIndex
	w.AddEntity(hero)
	return hero
}

func tick(w *World, dt float32, input ...Input) TickResult {
	return w.Tick(dt, w.Bounds(), input)
}

func appliedOf[T WorldStateUpdate](updates []WorldStateUpdate) []T {
	var out []T
	for _, u := range updates {
		if v, ok := u.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func outboundOf[T EngineStateUpdate](updates []EngineStateUpdate) []T {
	var out []T
	for _, u := range updates {
		if v, ok := u.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

// =============================================================================
// WORLD TESTS
// =============================================================================

func TestHeroMovesRightAndCentersCamera(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	hero := spawnHero(t, w, 0, 2, 2)

	result := tick(w, 1, Input{Direction: geom.Right})

	cfg := config.Default().Sim
	want := 2 + cfg.BaseEntitySpeed*1/cfg.TileSize
	if !approx(hero.Frame.X, want) {
		t.Errorf("Expected hero x %v, got %v", want, hero.Frame.X)
	}
	if hero.Frame.Y != 2 {
		t.Errorf("Expected hero y 2, got %v", hero.Frame.Y)
	}

	cameras := outboundOf[CenterCamera](result.Outbound)
	if len(cameras) != 1 {
		t.Fatalf("Expected 1 CenterCamera, got %d", len(cameras))
	}
	if cameras[0].PlayerIndex != 0 || !approx(cameras[0].X, want) || cameras[0].Y != 2 {
		t.Errorf("Expected camera on (%v, 2), got %+v", want, cameras[0])
	}
	if result.Tick != 1 || w.TickCount() != 1 {
		t.Errorf("Expected tick 1, got %d/%d", result.Tick, w.TickCount())
	}
}

func TestEntityIDsAreUniqueAndStable(t *testing.T) {
	w := newTestWorld(t, 20, 20)
	hero := spawnHero(t, w, 0, 1, 1)
	tree := spawn(t, w, SpeciesTree, 5, 5)
	rock := spawn(t, w, SpeciesRock, 6, 6)
	coin := spawn(t, w, SpeciesCoin, 10, 10)

	before := map[*Entity]EntityID{hero: hero.ID, tree: tree.ID, rock: rock.ID, coin: coin.ID}
	seen := make(map[EntityID]bool)
	for _, id := range before {
		if id == 0 || seen[id] {
			t.Fatalf("Expected unique non-zero ids, got %v", before)
		}
		seen[id] = true
	}

	for i := 0; i < 20; i++ {
		tick(w, 0.05)
	}
	for e, id := range before {
		if e.ID != id {
			t.Errorf("Expected %s to keep id %d, got %d", e, id, e.ID)
		}
	}

	explicit, _ := MakeEntityAt(SpeciesRock, 12, 12)
	explicit.ID = 50
	if got := w.AddEntity(explicit); got != 50 {
		t.Errorf("Expected explicit id 50, got %d", got)
	}
	clash, _ := MakeEntityAt(SpeciesRock, 13, 13)
	clash.ID = tree.ID
	if got := w.AddEntity(clash); got != 51 {
		t.Errorf("Expected clashing id to be replaced by 51, got %d", got)
	}
}

func TestCollectionSeesUnmodifiedWorld(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	hero := spawnHero(t, w, 0, 2, 2) // stands on tile (2,3)
	first := spawn(t, w, SpeciesCreep, 2, 3)
	second := spawn(t, w, SpeciesCreep, 2, 3)

	result := tick(w, 0.1)

	removals := appliedOf[RemoveEntity](result.Applied)
	if len(removals) != 1 || removals[0].ID != second.ID {
		t.Fatalf("Expected lower id to absorb the other creep, got %+v", removals)
	}
	// The absorbed creep still attacked this tick: its removal was only
	// applied after every behavior ran.
	hits := appliedOf[HandleHit](result.Applied)
	if len(hits) != 2 {
		t.Fatalf("Expected both creeps to attack, got %d hits", len(hits))
	}
	if w.Exists(second.ID) {
		t.Error("Expected absorbed creep to be gone after the tick")
	}
	if hero.HP != 94 {
		t.Errorf("Expected hero HP 94, got %v", hero.HP)
	}
	if first.HP != 600 || first.Sprite.OriginalFrame.X != 44 {
		t.Errorf("Expected second tier creep, got HP %v sprite x %v", first.HP, first.Sprite.OriginalFrame.X)
	}
}

func TestStepCommitmentDefersDirectionChange(t *testing.T) {
	t.Run("mid step", func(t *testing.T) {
		w := newTestWorld(t, 20, 20)
		hero, _ := MakeEntityAt(SpeciesHero, 2, 2)
		hero.Direction = geom.Right
		w.AddEntity(hero)

		tick(w, 0.1, Input{Direction: geom.Right}) // 3 px
		tick(w, 0.1, Input{Direction: geom.Right}) // 6 px
		tick(w, 0.1, Input{Direction: geom.Up})

		if hero.Direction != geom.Right {
			t.Errorf("Expected direction right, got %s", hero.Direction)
		}
		if hero.Frame.Y != 2 {
			t.Errorf("Expected no vertical movement, got y %v", hero.Frame.Y)
		}
	})

	t.Run("near committed step", func(t *testing.T) {
		w := newTestWorld(t, 20, 20)
		hero, _ := MakeEntityAt(SpeciesHero, 2, 2)
		hero.Direction = geom.Right
		w.AddEntity(hero)

		tick(w, 0.1, Input{Direction: geom.Right}) // 3 px
		tick(w, 0.1, Input{Direction: geom.Up})

		if hero.Direction != geom.Up {
			t.Errorf("Expected direction up, got %s", hero.Direction)
		}
		if hero.Frame.Y >= 2 {
			t.Errorf("Expected hero to move up, got y %v", hero.Frame.Y)
		}
	})
}

func TestNoInputStopsHero(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	hero := spawnHero(t, w, 0, 2, 2)

	tick(w, 0.1, Input{Direction: geom.Right})
	x := hero.Frame.X
	tick(w, 0.1)

	if hero.CurrentSpeed != 0 {
		t.Errorf("Expected speed 0, got %v", hero.CurrentSpeed)
	}
	if hero.Frame.X != x {
		t.Errorf("Expected hero to stay at %v, got %v", x, hero.Frame.X)
	}
}

func TestHeroBlockedByObstaclesAndEdges(t *testing.T) {
	w := newTestWorld(t, 5, 5)
	hero := spawnHero(t, w, 0, 3, 2)
	w.SetBiome(4, 3, BiomeWater)

	tick(w, 0.1, Input{Direction: geom.Right})
	if hero.Frame.X != 3 {
		t.Errorf("Expected water to block the hero, got x %v", hero.Frame.X)
	}

	edge := newTestWorld(t, 5, 5)
	hero = spawnHero(t, edge, 0, 0, 2)
	tick(edge, 0.1, Input{Direction: geom.Left})
	if hero.Frame.X != 0 {
		t.Errorf("Expected the world edge to block the hero, got x %v", hero.Frame.X)
	}
}

func TestDiagonalSlidesAlongFreeAxis(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	hero := spawnHero(t, w, 0, 3, 3) // hittable tile (3,4)
	spawn(t, w, SpeciesRock, 3, 5)

	tick(w, 0.1, Input{Direction: geom.DownRight})

	if hero.Frame.X <= 3 {
		t.Errorf("Expected hero to slide right, got x %v", hero.Frame.X)
	}
	if hero.Frame.Y != 3 {
		t.Errorf("Expected rock to stop vertical movement, got y %v", hero.Frame.Y)
	}
}

func TestNegativeDeltaIsClamped(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	hero := spawnHero(t, w, 0, 2, 2)

	for _, dt := range []float32{-1, float32(math.NaN())} {
		tick(w, dt, Input{Direction: geom.Right})
		if hero.Frame.X != 2 {
			t.Errorf("Expected no movement for dt %v, got x %v", dt, hero.Frame.X)
		}
	}
}

func TestVisibleSetIsViewportPlusMargin(t *testing.T) {
	w := newTestWorld(t, 30, 30)
	hero := spawnHero(t, w, 0, 25, 25)
	near := spawn(t, w, SpeciesRock, 10, 5) // inside the margin
	far := spawn(t, w, SpeciesRock, 12, 12) // outside

	ids := w.VisibleEntities(geom.Rect{X: 0, Y: 0, W: 10, H: 10})

	has := func(id EntityID) bool {
		for _, v := range ids {
			if v == id {
				return true
			}
		}
		return false
	}
	if !has(hero.ID) {
		t.Error("Expected heroes to always be visible")
	}
	if !has(near.ID) {
		t.Error("Expected entity within one tile of the viewport to be visible")
	}
	if has(far.ID) {
		t.Error("Expected distant entity to be skipped")
	}
}

func TestDetachAndPlaceHero(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	hero := spawnHero(t, w, 1, 2, 2)

	if !w.PlaceHero(1, 6, 7, geom.Left) {
		t.Fatal("Expected PlaceHero to succeed")
	}
	props, _ := w.PlayerProps(1)
	if props.Frame.X != 6 || props.Frame.Y != 7 || props.Direction != geom.Left {
		t.Errorf("Expected cached props at (6,7) facing left, got %+v", props)
	}

	detached, ok := w.DetachHero(1)
	if !ok || detached != hero {
		t.Fatal("Expected DetachHero to return the hero")
	}
	if w.Exists(hero.ID) || w.Len() != 0 {
		t.Error("Expected the world to be empty after detaching")
	}
	if _, ok := w.PlayerEntityID(1); ok {
		t.Error("Expected the player slot to be cleared")
	}
}
