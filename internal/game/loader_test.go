package game

import (
	"errors"
	"strings"
	"testing"

	"bitscape/internal/config"
	"bitscape/internal/geom"
)

const sampleWorld = `{
  "id": 3,
  "width": 6,
  "height": 5,
  "biomes": [
    ["grass", "grass", "water", "grass", "grass", "grass"],
    ["grass", "snow", "snow", "grass", "grass", "grass"]
  ],
  "entities": [
    {"species_id": 1001, "x": 1, "y": 2, "direction": "right", "player_index": 1},
    {"id": 40, "species_id": 1019, "x": 4, "y": 1, "lock": "yellow",
     "destination": {"world": 1, "x": 2, "y": 2, "direction": "down"}},
    {"species_id": 1060, "x": 0, "y": 0, "cutscene": {
      "key": "cutscene.start", "trigger_x": 1, "trigger_y": 3,
      "sheet_id": 6, "frame": {"x": 0, "y": 0, "w": 1, "h": 1}, "frames": 3,
      "on_end": [{"species_id": 2010, "x": 5, "y": 4}]
    }}
  ]
}`

func TestLoadWorld(t *testing.T) {
	w, err := LoadWorld(strings.NewReader(sampleWorld), config.Default())
	if err != nil {
		t.Fatalf("LoadWorld failed: %v", err)
	}

	if w.ID() != 3 || w.Bounds() != geom.NewRect(0, 0, 6, 5) {
		t.Errorf("Expected world 3 of 6x5, got %d %s", w.ID(), w.Bounds())
	}
	if !w.IsObstacle(2, 0) || w.Biome(1, 1) != BiomeSnow || w.Biome(0, 4) != BiomeNothing {
		t.Error("Expected biomes to be loaded row by row")
	}
	if w.Len() != 3 {
		t.Fatalf("Expected 3 entities, got %d", w.Len())
	}

	props, ok := w.PlayerProps(1)
	if !ok || props.Direction != geom.Right || props.Frame.X != 1 {
		t.Errorf("Expected player 1 hero facing right at x 1, got %+v", props)
	}

	tp, ok := w.Entity(40)
	if !ok {
		t.Fatal("Expected teleporter to keep id 40")
	}
	if tp.Lock != LockYellow || tp.Destination == nil || tp.Destination.Direction != geom.Down {
		t.Errorf("Expected locked teleporter with destination, got %+v", tp)
	}

	var cs *Entity
	w.ForEachEntity(func(e *Entity) bool {
		if e.Kind == KindCutscene {
			cs = e
			return false
		}
		return true
	})
	if cs == nil || cs.Cutscene == nil {
		t.Fatal("Expected a cutscene entity")
	}
	if cs.Cutscene.PlaySprite.NumberOfFrames != 3 || len(cs.Cutscene.OnEnd) != 1 {
		t.Errorf("Expected a 3 frame cutscene with one follow-up, got %+v", cs.Cutscene)
	}
}

func TestLoadWorldErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		species bool
	}{
		{"malformed json", `{"id": 1,`, false},
		{"zero size", `{"id": 1, "width": 0, "height": 4, "entities": []}`, false},
		{"unknown species", `{"id": 1, "width": 4, "height": 4, "entities": [{"species_id": 9}]}`, true},
		{"bad player index", `{"id": 1, "width": 4, "height": 4, "entities": [{"species_id": 1001, "player_index": 7}]}`, false},
		{"unknown follow-up", `{"id": 1, "width": 4, "height": 4, "entities": [
			{"species_id": 1060, "cutscene": {"key": "k", "frames": 2, "on_end": [{"species_id": 9}]}}]}`, true},
		{"unknown biome", `{"id": 1, "width": 4, "height": 4, "biomes": [["mud"]], "entities": []}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWorld(strings.NewReader(tt.input), config.Default())
			if !errors.Is(err, ErrInvalidWorldData) {
				t.Fatalf("Expected ErrInvalidWorldData, got %v", err)
			}
			if errors.Is(err, ErrUnknownSpecies) != tt.species {
				t.Errorf("Expected unknown species %v, got %v", tt.species, err)
			}
		})
	}
}

func TestBuildWorldSharesStore(t *testing.T) {
	store := NewMemoryStore()
	store.Set("cutscene.start", 1)

	data := WorldData{ID: 1, Width: 4, Height: 4, Entities: []EntityData{
		{Species: SpeciesCutscene, Cutscene: &CutsceneData{Key: "cutscene.start", Frames: 2}},
	}}
	w, err := BuildWorld(data, config.Default(), WithStore(store))
	if err != nil {
		t.Fatalf("BuildWorld failed: %v", err)
	}

	e, _ := w.Entity(1)
	if !e.Cutscene.Done {
		t.Error("Expected a played cutscene to load hidden")
	}
}
