package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"bitscape/internal/config"
	"bitscape/internal/geom"
)

// ErrInvalidWorldData is returned for world files that cannot be built.
var ErrInvalidWorldData = errors.New("invalid world data")

// WorldData is the on-disk description of a world.
type WorldData struct {
	ID       uint32       `json:"id" jsonschema:"title=World id,description=Identifier teleporter destinations refer to"`
	Width    int          `json:"width" jsonschema:"minimum=1,description=Columns"`
	Height   int          `json:"height" jsonschema:"minimum=1,description=Rows"`
	Biomes   [][]Biome    `json:"biomes,omitempty" jsonschema:"description=Terrain rows; missing tiles are nothing"`
	Entities []EntityData `json:"entities" jsonschema:"description=Entities placed on load"`
}

// EntityData places one entity. Omitted fields keep the species defaults.
type EntityData struct {
	ID          EntityID       `json:"id,omitempty" jsonschema:"description=Stable id; zero assigns a fresh one"`
	Species     SpeciesID      `json:"species_id" jsonschema:"description=Species template id"`
	X           int            `json:"x"`
	Y           int            `json:"y"`
	Direction   geom.Direction `json:"direction,omitempty"`
	Lock        LockType       `json:"lock,omitempty"`
	Destination *Destination   `json:"destination,omitempty"`
	PlayerIndex int            `json:"player_index,omitempty" jsonschema:"minimum=0,maximum=3"`
	Cutscene    *CutsceneData  `json:"cutscene,omitempty"`
}

// CutsceneData configures a cutscene entity.
type CutsceneData struct {
	Key      string       `json:"key" jsonschema:"description=Store key marked 1 once played"`
	TriggerX int          `json:"trigger_x"`
	TriggerY int          `json:"trigger_y"`
	SheetID  uint32       `json:"sheet_id"`
	Frame    geom.Rect    `json:"frame"`
	Frames   int          `json:"frames" jsonschema:"minimum=2"`
	OnEnd    []EntityData `json:"on_end,omitempty"`
}

// LoadWorld decodes world data from r and builds a world from it.
func LoadWorld(r io.Reader, cfg *config.Config, opts ...WorldOption) (*World, error) {
	var data WorldData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorldData, err)
	}
	return BuildWorld(data, cfg, opts...)
}

// BuildWorld creates a world from already decoded data.
func BuildWorld(data WorldData, cfg *config.Config, opts ...WorldOption) (*World, error) {
	if data.Width <= 0 || data.Height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidWorldData, data.Width, data.Height)
	}

	opts = append([]WorldOption{WithSize(data.Width, data.Height)}, opts...)
	w := NewWorld(cfg, data.ID, opts...)

	for row, biomes := range data.Biomes {
		for col, b := range biomes {
			w.SetBiome(col, row, b)
		}
	}
	for i, ed := range data.Entities {
		e, err := ed.build()
		if err != nil {
			return nil, fmt.Errorf("%w: entity %d: %w", ErrInvalidWorldData, i, err)
		}
		if err := e.Frame.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entity %d: %v", ErrInvalidWorldData, i, err)
		}
		w.AddEntity(e)
	}
	return w, nil
}

func (ed EntityData) build() (*Entity, error) {
	e, err := MakeEntityAt(ed.Species, ed.X, ed.Y)
	if err != nil {
		return nil, err
	}
	e.ID = ed.ID
	if ed.Direction != geom.Unknown {
		e.Direction = ed.Direction
	}
	e.Lock = ed.Lock
	if ed.Destination != nil {
		d := *ed.Destination
		e.Destination = &d
	}
	if ed.PlayerIndex < 0 || ed.PlayerIndex >= config.MaxPlayers {
		return nil, fmt.Errorf("player index %d out of range", ed.PlayerIndex)
	}
	e.PlayerIndex = ed.PlayerIndex

	if ed.Cutscene != nil {
		c := ed.Cutscene
		e.Cutscene = &Cutscene{
			Key:        c.Key,
			TriggerCol: c.TriggerX,
			TriggerRow: c.TriggerY,
			PlaySprite: NewSprite(c.SheetID, c.Frame, c.Frames),
		}
		for _, spawn := range c.OnEnd {
			child, err := spawn.build()
			if err != nil {
				return nil, fmt.Errorf("cutscene follow-up: %w", err)
			}
			e.Cutscene.OnEnd = append(e.Cutscene.OnEnd, child)
		}
	}
	return e, nil
}
