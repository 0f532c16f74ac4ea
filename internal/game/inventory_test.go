package game

import (
	"testing"
)

func TestInventoryAddRemove(t *testing.T) {
	inv := NewInventory()
	inv.Add(0, SpeciesCoin, 3)
	inv.Add(0, SpeciesCoin, -1)
	inv.Add(9, SpeciesCoin, 1)

	if got := inv.Count(0, SpeciesCoin); got != 3 {
		t.Fatalf("Expected 3 coins, got %d", got)
	}
	if inv.Remove(0, SpeciesCoin, 4) {
		t.Error("Expected removing more than held to fail")
	}
	if got := inv.Count(0, SpeciesCoin); got != 3 {
		t.Errorf("Expected a failed remove to change nothing, got %d", got)
	}
	if !inv.Remove(0, SpeciesCoin, 3) {
		t.Fatal("Expected removing everything to succeed")
	}
	if items := inv.Items(0); len(items) != 0 {
		t.Errorf("Expected an empty inventory, got %+v", items)
	}
	if inv.Count(9, SpeciesCoin) != 0 || inv.Items(-1) != nil {
		t.Error("Expected invalid players to hold nothing")
	}
}

func TestInventoryItemsAreSortedAndNamed(t *testing.T) {
	inv := NewInventory()
	inv.Add(2, SpeciesKunai, 5)
	inv.Add(2, SpeciesKeyRed, 1)
	inv.Add(2, SpeciesCoin, 2)

	items := inv.Items(2)

	want := []ItemCount{
		{Species: SpeciesKeyRed, Name: "key_red", Count: 1},
		{Species: SpeciesCoin, Name: "coin", Count: 2},
		{Species: SpeciesKunai, Name: "kunai", Count: 5},
	}
	if len(items) != len(want) {
		t.Fatalf("Expected %d items, got %d", len(want), len(items))
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("items[%d]: expected %+v, got %+v", i, want[i], items[i])
		}
	}
}

func TestInventorySaveRestore(t *testing.T) {
	store := NewMemoryStore()
	inv := NewInventory()
	inv.Add(0, SpeciesKeyYellow, 1)
	inv.Add(3, SpeciesKunai, 4)
	if err := inv.Save(store); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := NewInventory()
	restored.Restore(store)
	if restored.Count(0, SpeciesKeyYellow) != 1 || restored.Count(3, SpeciesKunai) != 4 {
		t.Errorf("Expected counts to be restored, got %+v / %+v", restored.Items(0), restored.Items(3))
	}

	// Spent items are saved as zero and stay gone.
	inv.Remove(0, SpeciesKeyYellow, 1)
	if err := inv.Save(store); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	again := NewInventory()
	again.Restore(store)
	if again.Count(0, SpeciesKeyYellow) != 0 {
		t.Error("Expected the spent key to stay spent")
	}
}

func TestCollectibleSpecies(t *testing.T) {
	got := collectibleSpecies()
	has := func(id SpeciesID) bool {
		for _, s := range got {
			if s == id {
				return true
			}
		}
		return false
	}

	for _, id := range []SpeciesID{SpeciesCoin, SpeciesKeySilver, SpeciesKunaiLauncher, SpeciesKunai} {
		if !has(id) {
			t.Errorf("Expected species %d to be collectible", id)
		}
	}
	for _, id := range []SpeciesID{SpeciesHero, SpeciesRock, SpeciesCannonball} {
		if has(id) {
			t.Errorf("Expected species %d not to be collectible", id)
		}
	}
}
