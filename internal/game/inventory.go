package game

import (
	"fmt"
	"sort"
	"sync"

	"bitscape/internal/config"
)

// Inventory holds item counts per player. It is safe for concurrent use:
// the tick goroutine reads it through InventoryReader while the API reads
// it for display.
type Inventory struct {
	mu    sync.RWMutex
	items [config.MaxPlayers]map[SpeciesID]int
}

// ItemCount is one inventory line.
type ItemCount struct {
	Species SpeciesID `json:"species_id"`
	Name    string    `json:"name"`
	Count   int       `json:"count"`
}

// NewInventory creates an empty inventory for every player slot.
func NewInventory() *Inventory {
	inv := &Inventory{}
	for i := range inv.items {
		inv.items[i] = make(map[SpeciesID]int)
	}
	return inv
}

func validPlayer(index int) bool {
	return index >= 0 && index < config.MaxPlayers
}

// Count implements InventoryReader.
func (inv *Inventory) Count(playerIndex int, species SpeciesID) int {
	if !validPlayer(playerIndex) {
		return 0
	}
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.items[playerIndex][species]
}

// Add grants n units of an item.
func (inv *Inventory) Add(playerIndex int, species SpeciesID, n int) {
	if !validPlayer(playerIndex) || n <= 0 {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.items[playerIndex][species] += n
}

// Remove consumes n units. It returns false, changing nothing, when the
// player holds fewer than n.
func (inv *Inventory) Remove(playerIndex int, species SpeciesID, n int) bool {
	if !validPlayer(playerIndex) || n <= 0 {
		return false
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()

	have := inv.items[playerIndex][species]
	if have < n {
		return false
	}
	if have == n {
		delete(inv.items[playerIndex], species)
	} else {
		inv.items[playerIndex][species] = have - n
	}
	return true
}

// Items lists a player's items ordered by species id.
func (inv *Inventory) Items(playerIndex int) []ItemCount {
	if !validPlayer(playerIndex) {
		return nil
	}
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make([]ItemCount, 0, len(inv.items[playerIndex]))
	for species, count := range inv.items[playerIndex] {
		item := ItemCount{Species: species, Count: count}
		if s, ok := LookupSpecies(species); ok {
			item.Name = s.Name
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Species < out[j].Species })
	return out
}

func inventoryKey(playerIndex int, species SpeciesID) string {
	return fmt.Sprintf("inventory.%d.%d", playerIndex, species)
}

// Save writes every count that can be held to the store. Zero counts are
// written too so consumed items do not come back on restore.
func (inv *Inventory) Save(store KeyValueStore) error {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	for i := range inv.items {
		for _, species := range collectibleSpecies() {
			if err := store.Set(inventoryKey(i, species), inv.items[i][species]); err != nil {
				return fmt.Errorf("save inventory: %w", err)
			}
		}
	}
	return nil
}

// Restore loads counts previously written by Save.
func (inv *Inventory) Restore(store KeyValueStore) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for i := range inv.items {
		for _, species := range collectibleSpecies() {
			if n, ok := store.Get(inventoryKey(i, species)); ok && n > 0 {
				inv.items[i][species] = n
			}
		}
	}
}

// collectibleSpecies lists species that can end up in an inventory:
// pickable objects, equipment and the ammunition it fires.
func collectibleSpecies() []SpeciesID {
	seen := make(map[SpeciesID]bool)
	for id, s := range speciesCatalog {
		switch s.Kind {
		case KindPickableObject, KindEquipment:
			seen[id] = true
		}
		if s.Ammo != 0 {
			seen[s.Ammo] = true
		}
	}
	out := make([]SpeciesID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
