package game

import (
	"errors"
	"fmt"

	"bitscape/internal/geom"
)

// SpeciesID identifies a template in the species catalog.
type SpeciesID uint32

// Insets shrink an entity frame into its hittable frame.
type Insets struct {
	Top, Right, Bottom, Left float32
}

// Species is a template entities are made from.
type Species struct {
	ID        SpeciesID
	Name      string
	Kind      EntityKind
	Width     float32
	Height    float32
	HitInsets Insets
	IsRigid   bool
	HasWeight bool
	HP        float32
	Speed     float32 // CurrentSpeed once moving
	Movement  Movement
	ZIndex    int32

	SheetID uint32
	Sprite  geom.Rect // first animation frame, in atlas tiles
	Frames  int
	Icon    geom.Rect // inventory/toast image

	Damage   float32 // per hit
	Cooldown float32 // seconds between attacks
	Lifespan float32 // seconds; 0 = unlimited. Bullets fly this long, then stop.

	Ammo                SpeciesID // item consumed when firing
	Bullet              SpeciesID // entity spawned when firing
	RequiresAmmoToEquip bool

	// Melee weapons swing on CloseAttack and spawn their bullets around the
	// hero; melee bullets hit in place and vanish when their lifespan ends.
	Melee bool
}

const (
	SpeciesHero          SpeciesID = 1001
	SpeciesHouse         SpeciesID = 1002
	SpeciesTree          SpeciesID = 1003
	SpeciesRock          SpeciesID = 1004
	SpeciesBoulder       SpeciesID = 1005
	SpeciesTeleporter    SpeciesID = 1019
	SpeciesPressurePlate SpeciesID = 1020
	SpeciesGate          SpeciesID = 1021
	SpeciesFootprints    SpeciesID = 1050
	SpeciesCutscene      SpeciesID = 1060
	SpeciesKunaiLauncher SpeciesID = 1160
	SpeciesSword         SpeciesID = 1162
	SpeciesKunai         SpeciesID = 7000
	SpeciesCannonball    SpeciesID = 7001
	SpeciesSwordSlash    SpeciesID = 7002
	SpeciesKeyYellow     SpeciesID = 2001
	SpeciesKeyRed        SpeciesID = 2002
	SpeciesKeyBlue       SpeciesID = 2003
	SpeciesKeyGreen      SpeciesID = 2004
	SpeciesKeySilver     SpeciesID = 2005
	SpeciesCoin          SpeciesID = 2010
	SpeciesCreep         SpeciesID = 4001
	SpeciesChaserCreep   SpeciesID = 4002
	SpeciesBarrel        SpeciesID = 4100
)

const (
	sheetHeroes    uint32 = 1
	sheetBuildings uint32 = 2
	sheetStatic    uint32 = 3
	sheetMonsters  uint32 = 4
	sheetWeapons   uint32 = 5
	sheetCutscenes uint32 = 6
)

// speciesCatalog holds every entity template.
var speciesCatalog = map[SpeciesID]Species{
	SpeciesHero: {
		ID: SpeciesHero, Name: "hero", Kind: KindHero,
		Width: 1, Height: 2, HitInsets: Insets{Top: 1},
		IsRigid: true, HasWeight: true, HP: 100, Speed: 1, Movement: MovementInput, ZIndex: 10,
		SheetID: sheetHeroes, Sprite: geom.Rect{X: 0, Y: 0, W: 1, H: 2}, Frames: 4,
	},
	SpeciesHouse: {
		ID: SpeciesHouse, Name: "house", Kind: KindBuilding,
		Width: 5, Height: 4, HitInsets: Insets{Top: 1},
		IsRigid: true, HasWeight: true,
		SheetID: sheetBuildings, Sprite: geom.Rect{W: 5, H: 4}, Frames: 1,
	},
	SpeciesTree: {
		ID: SpeciesTree, Name: "tree", Kind: KindStaticObject,
		Width: 1, Height: 2, HitInsets: Insets{Top: 1},
		IsRigid: true, HasWeight: true,
		SheetID: sheetStatic, Sprite: geom.Rect{W: 1, H: 2}, Frames: 1,
	},
	SpeciesRock: {
		ID: SpeciesRock, Name: "rock", Kind: KindStaticObject,
		Width: 1, Height: 1, IsRigid: true, HasWeight: true,
		SheetID: sheetStatic, Sprite: geom.Rect{X: 1, W: 1, H: 1}, Frames: 1,
	},
	SpeciesBoulder: {
		ID: SpeciesBoulder, Name: "boulder", Kind: KindPushable,
		Width: 1, Height: 1, IsRigid: true, HasWeight: true, ZIndex: 1,
		SheetID: sheetStatic, Sprite: geom.Rect{X: 3, W: 1, H: 1}, Frames: 1,
	},
	SpeciesBarrel: {
		ID: SpeciesBarrel, Name: "barrel", Kind: KindPickableObject,
		Width: 1, Height: 1, HasWeight: true,
		SheetID: sheetStatic, Sprite: geom.Rect{X: 2, W: 1, H: 1}, Frames: 1,
		Icon: geom.Rect{X: 2, W: 1, H: 1},
	},
	SpeciesTeleporter: {
		ID: SpeciesTeleporter, Name: "teleporter", Kind: KindTeleporter,
		Width: 1, Height: 1, ZIndex: -1,
		SheetID: sheetStatic, Sprite: geom.Rect{X: 4, W: 1, H: 1}, Frames: 1,
	},
	SpeciesPressurePlate: {
		ID: SpeciesPressurePlate, Name: "pressure_plate", Kind: KindPressurePlate,
		Width: 1, Height: 1, ZIndex: -2,
		SheetID: sheetStatic, Sprite: geom.Rect{X: 6, W: 1, H: 1}, Frames: 1,
	},
	SpeciesGate: {
		ID: SpeciesGate, Name: "gate", Kind: KindGate,
		Width: 1, Height: 1, IsRigid: true,
		SheetID: sheetStatic, Sprite: geom.Rect{X: 8, W: 1, H: 1}, Frames: 1,
	},
	SpeciesFootprints: {
		ID: SpeciesFootprints, Name: "footprints", Kind: KindTrail,
		Width: 1, Height: 1, ZIndex: -3, Lifespan: 1.5,
		SheetID: sheetStatic, Sprite: geom.Rect{X: 10, W: 1, H: 1}, Frames: 1,
	},
	SpeciesCutscene: {
		ID: SpeciesCutscene, Name: "cutscene", Kind: KindCutscene,
		Width: 1, Height: 1, ZIndex: 100,
		SheetID: sheetCutscenes, Sprite: geom.Rect{W: 1, H: 1}, Frames: 1,
	},
	SpeciesKunaiLauncher: {
		ID: SpeciesKunaiLauncher, Name: "kunai_launcher", Kind: KindEquipment,
		Width: 1, Height: 2, ZIndex: 11, Cooldown: 0.4,
		Ammo: SpeciesKunai, Bullet: SpeciesKunai, RequiresAmmoToEquip: true,
		SheetID: sheetWeapons, Sprite: geom.Rect{W: 1, H: 2}, Frames: 1,
	},
	SpeciesSword: {
		ID: SpeciesSword, Name: "sword", Kind: KindEquipment,
		Width: 1, Height: 2, ZIndex: 11, Cooldown: 0.3,
		Bullet: SpeciesSwordSlash, Melee: true,
		SheetID: sheetWeapons, Sprite: geom.Rect{X: 8, W: 1, H: 2}, Frames: 1,
	},
	SpeciesSwordSlash: {
		ID: SpeciesSwordSlash, Name: "sword_slash", Kind: KindBullet,
		Width: 1, Height: 1, Damage: 50, Lifespan: 0.15, ZIndex: 12, Melee: true,
		SheetID: sheetWeapons, Sprite: geom.Rect{X: 10, W: 1, H: 1}, Frames: 3,
	},
	SpeciesKunai: {
		ID: SpeciesKunai, Name: "kunai", Kind: KindBullet,
		Width: 1, Height: 1, HitInsets: Insets{Top: 0.25, Right: 0.25, Bottom: 0.25, Left: 0.25},
		Speed: 5, Movement: MovementStraight, Damage: 60, Lifespan: 2, ZIndex: 12,
		SheetID: sheetWeapons, Sprite: geom.Rect{X: 2, W: 1, H: 1}, Frames: 4,
		Icon: geom.Rect{X: 2, W: 1, H: 1},
	},
	SpeciesCannonball: {
		ID: SpeciesCannonball, Name: "cannonball", Kind: KindBullet,
		Width: 1, Height: 1, HitInsets: Insets{Top: 0.25, Right: 0.25, Bottom: 0.25, Left: 0.25},
		Speed: 3, Movement: MovementStraight, Damage: 120, Lifespan: 4, ZIndex: 12,
		SheetID: sheetWeapons, Sprite: geom.Rect{X: 6, W: 1, H: 1}, Frames: 1,
		Icon: geom.Rect{X: 6, W: 1, H: 1},
	},
	SpeciesKeyYellow: keySpecies(SpeciesKeyYellow, "key_yellow", 0),
	SpeciesKeyRed:    keySpecies(SpeciesKeyRed, "key_red", 1),
	SpeciesKeyBlue:   keySpecies(SpeciesKeyBlue, "key_blue", 2),
	SpeciesKeyGreen:  keySpecies(SpeciesKeyGreen, "key_green", 3),
	SpeciesKeySilver: keySpecies(SpeciesKeySilver, "key_silver", 4),
	SpeciesCoin: {
		ID: SpeciesCoin, Name: "coin", Kind: KindPickableObject,
		Width: 1, Height: 1,
		SheetID: sheetStatic, Sprite: geom.Rect{X: 12, Y: 1, W: 1, H: 1}, Frames: 4,
		Icon: geom.Rect{X: 12, Y: 1, W: 1, H: 1},
	},
	SpeciesCreep: {
		ID: SpeciesCreep, Name: "creep", Kind: KindMonster,
		Width: 1, Height: 1, HasWeight: true,
		HP: 100, Speed: 0.6, Movement: MovementFreeRoam, Damage: 3, Cooldown: 1, ZIndex: 5,
		SheetID: sheetMonsters, Sprite: geom.Rect{X: 28, W: 1, H: 1}, Frames: 4,
	},
	SpeciesChaserCreep: {
		ID: SpeciesChaserCreep, Name: "chaser_creep", Kind: KindMonster,
		Width: 1, Height: 1, HasWeight: true,
		HP: 100, Speed: 0.8, Movement: MovementChase, Damage: 3, Cooldown: 1, ZIndex: 5,
		SheetID: sheetMonsters, Sprite: geom.Rect{X: 28, Y: 1, W: 1, H: 1}, Frames: 4,
	},
}

func keySpecies(id SpeciesID, name string, column float32) Species {
	return Species{
		ID: id, Name: name, Kind: KindPickableObject,
		Width: 1, Height: 1,
		SheetID: sheetStatic, Sprite: geom.Rect{X: column, Y: 2, W: 1, H: 1}, Frames: 1,
		Icon: geom.Rect{X: column, Y: 2, W: 1, H: 1},
	}
}

// ErrUnknownSpecies is returned for ids missing from the catalog.
var ErrUnknownSpecies = errors.New("unknown species")

// LookupSpecies returns the template for id.
func LookupSpecies(id SpeciesID) (Species, bool) {
	s, ok := speciesCatalog[id]
	return s, ok
}

// MakeEntity builds a fresh entity from a species template. The id is
// assigned when the entity is added to a world.
func MakeEntity(id SpeciesID) (*Entity, error) {
	s, ok := speciesCatalog[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSpecies, id)
	}
	e := &Entity{
		Species:   s.ID,
		Kind:      s.Kind,
		Frame:     geom.Rect{W: s.Width, H: s.Height},
		Direction: geom.Down,
		HP:        s.HP,
		IsRigid:   s.IsRigid,
		ZIndex:    s.ZIndex,
		Sprite:    NewSprite(s.SheetID, s.Sprite, s.Frames),
		Movement:  s.Movement,
	}
	if s.Lifespan > 0 {
		e.Expires = true
		e.RemainingLifespan = s.Lifespan
	}
	if s.Kind == KindCutscene {
		e.Cutscene = &Cutscene{}
	}
	return e, nil
}

// MakeEntityAt builds an entity and places it on a tile.
func MakeEntityAt(id SpeciesID, col, row int) (*Entity, error) {
	e, err := MakeEntity(id)
	if err != nil {
		return nil, err
	}
	e.Frame.X = float32(col)
	e.Frame.Y = float32(row)
	return e, nil
}

// mustMakeEntity is for species ids known at compile time.
func mustMakeEntity(id SpeciesID) *Entity {
	e, err := MakeEntity(id)
	if err != nil {
		panic(err)
	}
	return e
}
