package game

import (
	"fmt"

	"bitscape/internal/geom"
)

// EntityID identifies an entity within a world. Zero means "none".
type EntityID uint32

// NoParent marks an entity without an owner.
const NoParent EntityID = 0

// EntityKind selects the behavior an entity runs every tick.
type EntityKind uint8

const (
	KindStaticObject EntityKind = iota
	KindHero
	KindMonster
	KindBullet
	KindPickableObject
	KindPressurePlate
	KindTeleporter
	KindEquipment
	KindCutscene
	KindBuilding
	KindGate
	KindTrail
	KindPushable
	kindCount
)

var kindNames = [...]string{
	KindStaticObject:   "static_object",
	KindHero:           "hero",
	KindMonster:        "monster",
	KindBullet:         "bullet",
	KindPickableObject: "pickable_object",
	KindPressurePlate:  "pressure_plate",
	KindTeleporter:     "teleporter",
	KindEquipment:      "equipment",
	KindCutscene:       "cutscene",
	KindBuilding:       "building",
	KindGate:           "gate",
	KindTrail:          "trail",
	KindPushable:       "pushable_object",
}

func (k EntityKind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k EntityKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EntityKind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = EntityKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown entity kind %q", text)
}

// Destination is where a teleporter sends the hero.
type Destination struct {
	World     uint32         `json:"world"`
	X         int            `json:"x"`
	Y         int            `json:"y"`
	Direction geom.Direction `json:"direction"`
}

// Entity is the mutable state of one simulated object.
//
// An entity's fields are written only by its own behavior during the
// collection phase and by the reducer during the apply phase.
type Entity struct {
	ID           EntityID       `json:"id"`
	ParentID     EntityID       `json:"parent_id,omitempty"`
	Species      SpeciesID      `json:"species_id"`
	Kind         EntityKind     `json:"kind"`
	Frame        geom.Rect      `json:"frame"`
	Direction    geom.Direction `json:"direction"`
	CurrentSpeed float32        `json:"current_speed"`
	Offset       geom.Vector2d  `json:"offset"` // pixels since the last committed step

	HP             float32 `json:"hp"`
	IsRigid        bool    `json:"is_rigid"`
	IsInvulnerable bool    `json:"is_invulnerable,omitempty"`
	IsDying        bool    `json:"is_dying,omitempty"`
	ZIndex         int32   `json:"z_index"`

	Sprite   Sprite   `json:"sprite"`
	Movement Movement `json:"movement,omitempty"`

	// Remaining seconds before automatic removal, when Expires is set.
	Expires           bool    `json:"expires,omitempty"`
	RemainingLifespan float32 `json:"remaining_lifespan,omitempty"`

	PlayerIndex    int          `json:"player_index,omitempty"`
	Lock           LockType     `json:"lock,omitempty"`
	Destination    *Destination `json:"destination,omitempty"`
	Cooldown       float32      `json:"cooldown,omitempty"`
	ImmobilizedFor float32      `json:"immobilized_for,omitempty"`
	IsEquipped     bool         `json:"is_equipped,omitempty"`
	Cutscene       *Cutscene    `json:"cutscene,omitempty"`

	// Seconds until the hero accepts another direction change.
	directionCooldown float32
}

// HittableFrame is the part of Frame used for collisions and targeting.
func (e *Entity) HittableFrame() geom.Rect {
	s, ok := LookupSpecies(e.Species)
	if !ok {
		return e.Frame
	}
	in := s.HitInsets
	return e.Frame.Inset(in.Top, in.Right, in.Bottom, in.Left)
}

// Tile returns the tile holding the center of the hittable frame.
func (e *Entity) Tile() (col, row int) {
	return e.HittableFrame().Tile()
}

// SortingKey orders entities for drawing: z-index, then bottom edge, then x.
func (e *Entity) SortingKey() (int32, float32, float32) {
	return e.ZIndex, e.Frame.MaxY(), e.Frame.X
}

// Props snapshots the externally visible state of e.
func (e *Entity) Props() EntityProps {
	return EntityProps{
		ID:             e.ID,
		Direction:      e.Direction,
		Frame:          e.Frame,
		HittableFrame:  e.HittableFrame(),
		Offset:         e.Offset,
		Speed:          e.CurrentSpeed,
		HP:             e.HP,
		IsInvulnerable: e.IsInvulnerable,
		ZIndex:         e.ZIndex,
	}
}

// Clone returns a deep copy safe to hand to another owner.
func (e *Entity) Clone() *Entity {
	c := *e
	if e.Destination != nil {
		d := *e.Destination
		c.Destination = &d
	}
	if e.Cutscene != nil {
		c.Cutscene = e.Cutscene.clone()
	}
	return &c
}

func (e *Entity) isMoving() bool {
	return e.CurrentSpeed > 0 && e.Direction.IsMoving()
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s#%d", e.Kind, e.ID)
}

// EntityProps is an immutable snapshot of an entity, read by other
// entities during the same tick.
type EntityProps struct {
	ID             EntityID       `json:"id"`
	Direction      geom.Direction `json:"direction"`
	Frame          geom.Rect      `json:"frame"`
	HittableFrame  geom.Rect      `json:"hittable_frame"`
	Offset         geom.Vector2d  `json:"offset"`
	Speed          float32        `json:"speed"`
	HP             float32        `json:"hp"`
	IsInvulnerable bool           `json:"is_invulnerable"`
	ZIndex         int32          `json:"z_index"`
}

// Tile returns the tile holding the center of the hittable frame.
func (p EntityProps) Tile() (col, row int) {
	return p.HittableFrame.Tile()
}
