package game

import (
	"fmt"

	"bitscape/internal/geom"
)

// UpdateKind classifies world and engine updates. It doubles as the
// event type in the journal.
type UpdateKind uint8

const (
	UpdateUnknown UpdateKind = iota

	// World updates, applied by the reducer.
	UpdateAddEntity
	UpdateRemoveEntity
	UpdateChangeLock
	UpdatePressurePlate
	UpdateChangeTile
	UpdateCacheHeroProps
	UpdateHandleHit
	UpdateSetStorageValue
	UpdateStopHeroMovement
	UpdateBatch
	UpdateEngine

	// Engine updates, forwarded untouched.
	UpdateCenterCamera
	UpdateTeleport
	UpdateAddToInventory
	UpdateRemoveFromInventory
	UpdateSaveGame
	UpdateToast
	UpdateConfirmation
	UpdatePlaySound
	UpdateShowEntityOptions
	UpdateCombatResult
	updateKindCount
)

var updateKindNames = [...]string{
	UpdateUnknown:             "unknown",
	UpdateAddEntity:           "add_entity",
	UpdateRemoveEntity:        "remove_entity",
	UpdateChangeLock:          "change_lock",
	UpdatePressurePlate:       "pressure_plate",
	UpdateChangeTile:          "change_tile",
	UpdateCacheHeroProps:      "cache_hero_props",
	UpdateHandleHit:           "handle_hit",
	UpdateSetStorageValue:     "set_storage_value",
	UpdateStopHeroMovement:    "stop_hero_movement",
	UpdateBatch:               "batch",
	UpdateEngine:              "engine",
	UpdateCenterCamera:        "center_camera",
	UpdateTeleport:            "teleport",
	UpdateAddToInventory:      "add_to_inventory",
	UpdateRemoveFromInventory: "remove_from_inventory",
	UpdateSaveGame:            "save_game",
	UpdateToast:               "toast",
	UpdateConfirmation:        "confirmation",
	UpdatePlaySound:           "play_sound",
	UpdateShowEntityOptions:   "show_entity_options",
	UpdateCombatResult:        "combat_result",
}

func (k UpdateKind) String() string {
	if k < updateKindCount {
		return updateKindNames[k]
	}
	return "unknown"
}

func (k UpdateKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *UpdateKind) UnmarshalText(text []byte) error {
	for i, name := range updateKindNames {
		if name == string(text) {
			*k = UpdateKind(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownUpdateKind, text)
}

// WorldStateUpdate is a requested mutation of the world. Behaviors return
// them; only the reducer applies them.
type WorldStateUpdate interface {
	Kind() UpdateKind
	worldUpdate()
}

// EngineStateUpdate is a request the core hands to the surrounding
// engine without interpreting it.
type EngineStateUpdate interface {
	Kind() UpdateKind
	engineUpdate()
}

// =============================================================================
// WORLD UPDATES
// =============================================================================

// AddEntity inserts a new entity. A zero id is replaced by the next free one.
type AddEntity struct {
	Entity *Entity `json:"entity"`
}

// RemoveEntity deletes an entity. Missing ids are ignored.
type RemoveEntity struct {
	ID EntityID `json:"id"`
}

// ChangeLock replaces the lock of an entity and persists the change.
type ChangeLock struct {
	ID   EntityID `json:"id"`
	Lock LockType `json:"lock"`
}

// SetPressurePlateState records whether plates of a color are pressed.
type SetPressurePlateState struct {
	Lock LockType `json:"lock"`
	Down bool     `json:"down"`
}

// ChangeTile replaces the biome of one tile.
type ChangeTile struct {
	Col   int   `json:"col"`
	Row   int   `json:"row"`
	Biome Biome `json:"biome"`
}

// CacheHeroProps refreshes the snapshot other entities read for a player.
type CacheHeroProps struct {
	PlayerIndex int         `json:"player_index"`
	Props       EntityProps `json:"props"`
}

// HandleHit damages Target. BulletID, when set, is consumed by the hit.
type HandleHit struct {
	AttackerID EntityID `json:"attacker_id"`
	BulletID   EntityID `json:"bullet_id,omitempty"`
	TargetID   EntityID `json:"target_id"`
	Damage     float32  `json:"damage"`
}

// SetStorageValue writes a persisted flag.
type SetStorageValue struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

// StopHeroMovement halts a player's hero, used after teleporting.
type StopHeroMovement struct {
	PlayerIndex int `json:"player_index"`
}

// Batch is applied whole, and only while Owner is still in the world.
type Batch struct {
	Owner   EntityID           `json:"owner"`
	Updates []WorldStateUpdate `json:"-"`
}

// EngineUpdate wraps a request for the surrounding engine.
type EngineUpdate struct {
	Update EngineStateUpdate `json:"-"`
}

func (AddEntity) Kind() UpdateKind             { return UpdateAddEntity }
func (RemoveEntity) Kind() UpdateKind          { return UpdateRemoveEntity }
func (ChangeLock) Kind() UpdateKind            { return UpdateChangeLock }
func (SetPressurePlateState) Kind() UpdateKind { return UpdatePressurePlate }
func (ChangeTile) Kind() UpdateKind            { return UpdateChangeTile }
func (CacheHeroProps) Kind() UpdateKind        { return UpdateCacheHeroProps }
func (HandleHit) Kind() UpdateKind             { return UpdateHandleHit }
func (SetStorageValue) Kind() UpdateKind       { return UpdateSetStorageValue }
func (StopHeroMovement) Kind() UpdateKind      { return UpdateStopHeroMovement }
func (Batch) Kind() UpdateKind                 { return UpdateBatch }
func (EngineUpdate) Kind() UpdateKind          { return UpdateEngine }

func (AddEntity) worldUpdate()             {}
func (RemoveEntity) worldUpdate()          {}
func (ChangeLock) worldUpdate()            {}
func (SetPressurePlateState) worldUpdate() {}
func (ChangeTile) worldUpdate()            {}
func (CacheHeroProps) worldUpdate()        {}
func (HandleHit) worldUpdate()             {}
func (SetStorageValue) worldUpdate()       {}
func (StopHeroMovement) worldUpdate()      {}
func (Batch) worldUpdate()                 {}
func (EngineUpdate) worldUpdate()          {}

// toEngine wraps an engine update for the world update stream.
func toEngine(u EngineStateUpdate) WorldStateUpdate {
	return EngineUpdate{Update: u}
}

// =============================================================================
// ENGINE UPDATES
// =============================================================================

// InventoryReason tells the engine why an item was granted.
type InventoryReason uint8

const (
	ReasonPickedUp InventoryReason = iota
	ReasonReward
)

func (r InventoryReason) String() string {
	if r == ReasonReward {
		return "reward"
	}
	return "picked_up"
}

// ToastMode selects how a toast is presented.
type ToastMode uint8

const (
	ToastRegular ToastMode = iota
	ToastImportant
	ToastHint
)

// Toast is a short notification. Text is a localization key with
// positional arguments; the engine resolves it.
type Toast struct {
	Mode ToastMode  `json:"mode"`
	Key  string     `json:"key"`
	Args []string   `json:"args,omitempty"`
	Icon *ToastIcon `json:"icon,omitempty"`
}

// ToastIcon references a region of a sprite sheet.
type ToastIcon struct {
	SheetID uint32    `json:"sheet_id"`
	Frame   geom.Rect `json:"frame"`
}

// SoundCue names an audio effect.
type SoundCue string

const (
	SoundKunaiThrown SoundCue = "kunai_thrown"
	SoundSwordSlash  SoundCue = "sword_slash"
	SoundNoAmmo      SoundCue = "no_ammo"
	SoundHit         SoundCue = "hit"
	SoundDeath       SoundCue = "death"
	SoundPickup      SoundCue = "pickup"
	SoundPlateDown   SoundCue = "pressure_plate_down"
	SoundPlateUp     SoundCue = "pressure_plate_up"
	SoundTeleport    SoundCue = "teleport"
)

// CenterCamera asks the engine to center the camera on a hero.
type CenterCamera struct {
	PlayerIndex int           `json:"player_index"`
	X           float32       `json:"x"`
	Y           float32       `json:"y"`
	Offset      geom.Vector2d `json:"offset"`
}

// Teleport asks the engine to move the hero to another world.
type Teleport struct {
	PlayerIndex int         `json:"player_index"`
	Destination Destination `json:"destination"`
}

// AddToInventory grants one unit of an item.
type AddToInventory struct {
	PlayerIndex int             `json:"player_index"`
	Species     SpeciesID       `json:"species_id"`
	Reason      InventoryReason `json:"reason"`
}

// RemoveFromInventory consumes one unit of an item.
type RemoveFromInventory struct {
	PlayerIndex int       `json:"player_index"`
	Species     SpeciesID `json:"species_id"`
}

// SaveGame asks the engine to persist progress.
type SaveGame struct{}

// ShowToast displays a toast.
type ShowToast struct {
	Toast Toast `json:"toast"`
}

// Confirmation asks the player a yes/no question. OnConfirm is fed back
// into the world when they accept.
type Confirmation struct {
	Title     string             `json:"title"`
	Text      string             `json:"text"`
	OnConfirm []WorldStateUpdate `json:"-"`
}

// PlaySound triggers an audio cue.
type PlaySound struct {
	Cue SoundCue `json:"cue"`
}

// ShowEntityOptions opens the editor menu for an entity.
type ShowEntityOptions struct {
	Entity  EntityProps `json:"entity"`
	Species SpeciesID   `json:"species_id"`
}

// CombatResult reports the outcome of a hit.
type CombatResult struct {
	AttackerID EntityID `json:"attacker_id"`
	TargetID   EntityID `json:"target_id"`
	Damage     float32  `json:"damage"`
	TargetHP   float32  `json:"target_hp"`
	Killed     bool     `json:"killed"`
}

func (CenterCamera) Kind() UpdateKind        { return UpdateCenterCamera }
func (Teleport) Kind() UpdateKind            { return UpdateTeleport }
func (AddToInventory) Kind() UpdateKind      { return UpdateAddToInventory }
func (RemoveFromInventory) Kind() UpdateKind { return UpdateRemoveFromInventory }
func (SaveGame) Kind() UpdateKind            { return UpdateSaveGame }
func (ShowToast) Kind() UpdateKind           { return UpdateToast }
func (Confirmation) Kind() UpdateKind        { return UpdateConfirmation }
func (PlaySound) Kind() UpdateKind           { return UpdatePlaySound }
func (ShowEntityOptions) Kind() UpdateKind   { return UpdateShowEntityOptions }
func (CombatResult) Kind() UpdateKind        { return UpdateCombatResult }

func (CenterCamera) engineUpdate()        {}
func (Teleport) engineUpdate()            {}
func (AddToInventory) engineUpdate()      {}
func (RemoveFromInventory) engineUpdate() {}
func (SaveGame) engineUpdate()            {}
func (ShowToast) engineUpdate()           {}
func (Confirmation) engineUpdate()        {}
func (PlaySound) engineUpdate()           {}
func (ShowEntityOptions) engineUpdate()   {}
func (CombatResult) engineUpdate()        {}
