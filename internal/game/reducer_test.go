package game

import (
	"testing"
)

func TestRemoveIsIdempotent(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	rock := spawn(t, w, SpeciesRock, 3, 3)
	tree := spawn(t, w, SpeciesTree, 5, 5)

	w.Apply(RemoveEntity{ID: rock.ID}, RemoveEntity{ID: rock.ID}, RemoveEntity{ID: 999})

	if w.Exists(rock.ID) {
		t.Error("Expected rock to be removed")
	}
	if !w.Exists(tree.ID) || w.Len() != 1 {
		t.Errorf("Expected only the tree to remain, got %d entities", w.Len())
	}
}

func TestHeroesAreNeverRemoved(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	hero := spawnHero(t, w, 0, 2, 2)

	w.Apply(RemoveEntity{ID: hero.ID})

	if !w.Exists(hero.ID) {
		t.Error("Expected the hero to survive a removal")
	}
}

func TestAddEntityStoresACopy(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	spawn(t, w, SpeciesRock, 1, 1)
	e, _ := MakeEntityAt(SpeciesCoin, 4, 4)

	w.Apply(AddEntity{Entity: e})

	if e.ID != 0 {
		t.Errorf("Expected the original to stay unassigned, got id %d", e.ID)
	}
	if w.Len() != 2 || !w.Exists(2) {
		t.Errorf("Expected the copy under id 2, got %d entities", w.Len())
	}
	if w.OccupantAt(4, 4) != 2 {
		t.Errorf("Expected the grid to be refreshed, got occupant %d", w.OccupantAt(4, 4))
	}
}

func TestHandleHit(t *testing.T) {
	tests := []struct {
		name       string
		damage     float32
		dying      bool
		invuln     bool
		wantHP     float32
		wantKilled bool
		wantResult bool
	}{
		{"damages", 30, false, false, 70, false, true},
		{"kills", 150, false, false, -50, true, true},
		{"ignores dying", 30, true, false, 100, false, false},
		{"ignores invulnerable", 30, false, true, 100, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t, 10, 10)
			creep := spawn(t, w, SpeciesCreep, 3, 3)
			creep.IsDying = tt.dying
			creep.IsInvulnerable = tt.invuln

			outbound := w.Apply(HandleHit{TargetID: creep.ID, Damage: tt.damage})

			if creep.HP != tt.wantHP {
				t.Errorf("Expected HP %v, got %v", tt.wantHP, creep.HP)
			}
			results := outboundOf[CombatResult](outbound)
			if got := len(results) == 1; got != tt.wantResult {
				t.Fatalf("Expected combat result %v, got %+v", tt.wantResult, results)
			}
			if tt.wantResult && results[0].Killed != tt.wantKilled {
				t.Errorf("Expected killed %v, got %v", tt.wantKilled, results[0].Killed)
			}
		})
	}
}

func TestKilledMonsterLingersThenDisappears(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	creep := spawn(t, w, SpeciesCreep, 3, 3)

	w.Apply(HandleHit{TargetID: creep.ID, Damage: 500})
	if !creep.IsDying || !creep.Expires {
		t.Fatal("Expected the creep to start dying")
	}
	if occ := w.OccupantsAt(3, 3); len(occ) != 1 || occ[0].Flags != 0 {
		t.Errorf("Expected a dying creep to be neither hittable nor heavy, got %+v", occ)
	}

	tick(w, deathDuration)
	if w.Exists(creep.ID) {
		t.Error("Expected the creep to be removed after dying")
	}
}

func TestHitConsumesBullet(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	creep := spawn(t, w, SpeciesCreep, 3, 3)
	bullet := spawn(t, w, SpeciesKunai, 3, 3)

	w.Apply(HandleHit{BulletID: bullet.ID, TargetID: creep.ID, Damage: 1})

	if w.Exists(bullet.ID) {
		t.Error("Expected the bullet to be consumed")
	}
}

func TestBatchNeedsItsOwner(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	coin := spawn(t, w, SpeciesCoin, 3, 3)
	batch := Batch{Owner: coin.ID, Updates: []WorldStateUpdate{
		toEngine(AddToInventory{Species: SpeciesCoin}),
		RemoveEntity{ID: coin.ID},
	}}

	// A second copy of the same pickup arrives after the first removed
	// the coin and must not grant anything.
	outbound := w.Apply(batch, batch)

	if n := len(outboundOf[AddToInventory](outbound)); n != 1 {
		t.Errorf("Expected exactly 1 inventory grant, got %d", n)
	}
}

func TestChangeLockSurvivesReload(t *testing.T) {
	store := NewMemoryStore()
	w := newTestWorld(t, 10, 10, WithStore(store))
	tp, _ := MakeEntityAt(SpeciesTeleporter, 3, 3)
	tp.Lock = LockYellow
	w.AddEntity(tp)
	if !tp.IsRigid {
		t.Fatal("Expected locked teleporter to be rigid")
	}

	w.Apply(ChangeLock{ID: tp.ID, Lock: LockNone})
	if tp.Lock != LockNone || tp.IsRigid {
		t.Errorf("Expected unlocked passable teleporter, got %s rigid %v", tp.Lock, tp.IsRigid)
	}

	reloaded := newTestWorld(t, 10, 10, WithStore(store))
	again, _ := MakeEntityAt(SpeciesTeleporter, 3, 3)
	again.Lock = LockYellow
	reloaded.AddEntity(again)
	if again.Lock != LockNone {
		t.Errorf("Expected the stored lock override, got %s", again.Lock)
	}
}

func TestPressurePlateStateIsPersisted(t *testing.T) {
	store := NewMemoryStore()
	w := newTestWorld(t, 10, 10, WithStore(store))

	w.Apply(SetPressurePlateState{Lock: LockGreen, Down: true})

	if v, ok := store.Get(pressurePlateKey(LockGreen)); !ok || v != 1 {
		t.Errorf("Expected stored value 1, got %d (%v)", v, ok)
	}
	reloaded := newTestWorld(t, 10, 10, WithStore(store))
	if !reloaded.IsPressurePlateDown(LockGreen) {
		t.Error("Expected a new world to read the stored plate state")
	}
}

func TestChangeTile(t *testing.T) {
	w := newTestWorld(t, 5, 5)

	w.Apply(ChangeTile{Col: 2, Row: 3, Biome: BiomeLava}, ChangeTile{Col: 9, Row: 9, Biome: BiomeLava})

	if !w.IsObstacle(2, 3) {
		t.Error("Expected lava to block the tile")
	}
	if w.Biome(9, 9) != BiomeNothing {
		t.Error("Expected out of bounds tiles to stay nothing")
	}
}

func TestEngineUpdatesKeepOrder(t *testing.T) {
	w := newTestWorld(t, 5, 5)

	outbound := w.Apply(
		toEngine(PlaySound{Cue: SoundPickup}),
		RemoveEntity{ID: 42},
		toEngine(SaveGame{}),
		toEngine(PlaySound{Cue: SoundTeleport}),
	)

	want := []UpdateKind{UpdatePlaySound, UpdateSaveGame, UpdatePlaySound}
	if len(outbound) != len(want) {
		t.Fatalf("Expected %d outbound updates, got %d", len(want), len(outbound))
	}
	for i, kind := range want {
		if outbound[i].Kind() != kind {
			t.Errorf("outbound[%d]: expected %s, got %s", i, kind, outbound[i].Kind())
		}
	}
}
