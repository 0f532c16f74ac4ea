package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// ErrUnknownUpdateKind is returned when decoding an unrecognized update.
var ErrUnknownUpdateKind = errors.New("unknown update kind")

// Event is one journal line: a world update applied during a tick.
type Event struct {
	Version   uint8           `json:"version"`   // Schema version
	Type      UpdateKind      `json:"type"`      // Update kind
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic sequence
	TickNum   uint64          `json:"tickNum"`   // Tick the update was applied in
	WorldID   uint32          `json:"worldId"`
	Source    string          `json:"source,omitempty"` // Rate-limit key, e.g. "player:0"
	Payload   json.RawMessage `json:"payload"`
}

// NewEvent encodes u as a journal event with the current timestamp.
func NewEvent(u WorldStateUpdate, tickNum uint64, worldID uint32) (Event, error) {
	payload, err := json.Marshal(u)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s: %w", u.Kind(), err)
	}
	return Event{
		Version:   EventVersion,
		Type:      u.Kind(),
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		WorldID:   worldID,
		Source:    updateSource(u),
		Payload:   payload,
	}, nil
}

// updateSource attributes per-player chatter for rate limiting.
func updateSource(u WorldStateUpdate) string {
	switch u := u.(type) {
	case CacheHeroProps:
		return fmt.Sprintf("player:%d", u.PlayerIndex)
	case EngineUpdate:
		if c, ok := u.Update.(CenterCamera); ok {
			return fmt.Sprintf("player:%d", c.PlayerIndex)
		}
	}
	return ""
}

// Envelope carries any update tagged with its kind.
type Envelope struct {
	Kind UpdateKind      `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type kinded interface {
	Kind() UpdateKind
}

func encodeEnvelope(u kinded) (Envelope, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Kind: u.Kind(), Data: data}, nil
}

func encodeEnvelopes(updates []WorldStateUpdate) ([]Envelope, error) {
	out := make([]Envelope, 0, len(updates))
	for _, u := range updates {
		env, err := encodeEnvelope(u)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}

func decodeEnvelopes(envs []Envelope) ([]WorldStateUpdate, error) {
	out := make([]WorldStateUpdate, 0, len(envs))
	for _, env := range envs {
		u, err := DecodeWorldUpdate(env.Kind, env.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func decodeInto[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// DecodeWorldUpdate rebuilds a world update from its kind and JSON.
func DecodeWorldUpdate(kind UpdateKind, data []byte) (WorldStateUpdate, error) {
	var (
		u   WorldStateUpdate
		err error
	)
	switch kind {
	case UpdateAddEntity:
		u, err = decodeInto[AddEntity](data)
	case UpdateRemoveEntity:
		u, err = decodeInto[RemoveEntity](data)
	case UpdateChangeLock:
		u, err = decodeInto[ChangeLock](data)
	case UpdatePressurePlate:
		u, err = decodeInto[SetPressurePlateState](data)
	case UpdateChangeTile:
		u, err = decodeInto[ChangeTile](data)
	case UpdateCacheHeroProps:
		u, err = decodeInto[CacheHeroProps](data)
	case UpdateHandleHit:
		u, err = decodeInto[HandleHit](data)
	case UpdateSetStorageValue:
		u, err = decodeInto[SetStorageValue](data)
	case UpdateStopHeroMovement:
		u, err = decodeInto[StopHeroMovement](data)
	case UpdateBatch:
		u, err = decodeInto[Batch](data)
	case UpdateEngine:
		u, err = decodeInto[EngineUpdate](data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownUpdateKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return u, nil
}

// DecodeEngineUpdate rebuilds an engine update from its kind and JSON.
func DecodeEngineUpdate(kind UpdateKind, data []byte) (EngineStateUpdate, error) {
	var (
		u   EngineStateUpdate
		err error
	)
	switch kind {
	case UpdateCenterCamera:
		u, err = decodeInto[CenterCamera](data)
	case UpdateTeleport:
		u, err = decodeInto[Teleport](data)
	case UpdateAddToInventory:
		u, err = decodeInto[AddToInventory](data)
	case UpdateRemoveFromInventory:
		u, err = decodeInto[RemoveFromInventory](data)
	case UpdateSaveGame:
		u, err = decodeInto[SaveGame](data)
	case UpdateToast:
		u, err = decodeInto[ShowToast](data)
	case UpdateConfirmation:
		u, err = decodeInto[Confirmation](data)
	case UpdatePlaySound:
		u, err = decodeInto[PlaySound](data)
	case UpdateShowEntityOptions:
		u, err = decodeInto[ShowEntityOptions](data)
	case UpdateCombatResult:
		u, err = decodeInto[CombatResult](data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownUpdateKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return u, nil
}

// EncodeEngineUpdate wraps an engine update for clients and journals.
func EncodeEngineUpdate(u EngineStateUpdate) (Envelope, error) {
	return encodeEnvelope(u)
}

// =============================================================================
// NESTED UPDATE ENCODING
// =============================================================================

type batchJSON struct {
	Owner   EntityID   `json:"owner"`
	Updates []Envelope `json:"updates"`
}

func (b Batch) MarshalJSON() ([]byte, error) {
	envs, err := encodeEnvelopes(b.Updates)
	if err != nil {
		return nil, err
	}
	return json.Marshal(batchJSON{Owner: b.Owner, Updates: envs})
}

func (b *Batch) UnmarshalJSON(data []byte) error {
	var raw batchJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	updates, err := decodeEnvelopes(raw.Updates)
	if err != nil {
		return err
	}
	b.Owner, b.Updates = raw.Owner, updates
	return nil
}

func (e EngineUpdate) MarshalJSON() ([]byte, error) {
	if e.Update == nil {
		return []byte("null"), nil
	}
	env, err := encodeEnvelope(e.Update)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func (e *EngineUpdate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		e.Update = nil
		return nil
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	u, err := DecodeEngineUpdate(env.Kind, env.Data)
	if err != nil {
		return err
	}
	e.Update = u
	return nil
}

type confirmationJSON struct {
	Title     string     `json:"title"`
	Text      string     `json:"text"`
	OnConfirm []Envelope `json:"on_confirm"`
}

func (c Confirmation) MarshalJSON() ([]byte, error) {
	envs, err := encodeEnvelopes(c.OnConfirm)
	if err != nil {
		return nil, err
	}
	return json.Marshal(confirmationJSON{Title: c.Title, Text: c.Text, OnConfirm: envs})
}

func (c *Confirmation) UnmarshalJSON(data []byte) error {
	var raw confirmationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	updates, err := decodeEnvelopes(raw.OnConfirm)
	if err != nil {
		return err
	}
	c.Title, c.Text, c.OnConfirm = raw.Title, raw.Text, updates
	return nil
}
