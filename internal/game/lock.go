package game

import "fmt"

// LockType colors teleporters, gates and pressure plates. Plates of a
// color open everything locked with the same color.
type LockType uint8

const (
	LockNone LockType = iota
	LockYellow
	LockRed
	LockBlue
	LockGreen
	LockSilver
	LockPermanent
)

var lockNames = [...]string{
	LockNone:      "none",
	LockYellow:    "yellow",
	LockRed:       "red",
	LockBlue:      "blue",
	LockGreen:     "green",
	LockSilver:    "silver",
	LockPermanent: "permanent",
}

func (l LockType) String() string {
	if int(l) < len(lockNames) {
		return lockNames[l]
	}
	return fmt.Sprintf("lock(%d)", uint8(l))
}

func (l LockType) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *LockType) UnmarshalText(text []byte) error {
	for i, name := range lockNames {
		if name == string(text) {
			*l = LockType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown lock %q", text)
}

// Key returns the inventory item that opens l, if any.
func (l LockType) Key() (SpeciesID, bool) {
	switch l {
	case LockYellow:
		return SpeciesKeyYellow, true
	case LockRed:
		return SpeciesKeyRed, true
	case LockBlue:
		return SpeciesKeyBlue, true
	case LockGreen:
		return SpeciesKeyGreen, true
	case LockSilver:
		return SpeciesKeySilver, true
	}
	return 0, false
}

// pressurePlateKey is the store key holding a plate color's state.
func pressurePlateKey(l LockType) string {
	return "pressure_plate." + l.String()
}

// lockOverrideKey is the store key holding a lock changed at runtime.
func lockOverrideKey(world uint32, id EntityID) string {
	return fmt.Sprintf("lock_override.%d.%d", world, id)
}
