package game

import "fmt"

// Biome is the terrain kind of a tile.
type Biome uint8

const (
	BiomeNothing Biome = iota
	BiomeGrass
	BiomeWater
	BiomeRock
	BiomeDesert
	BiomeSnow
	BiomeIce
	BiomeLava
	BiomeFarmland
	BiomeDarkRock
	BiomeDarkGrass
)

var biomeNames = [...]string{
	BiomeNothing:   "nothing",
	BiomeGrass:     "grass",
	BiomeWater:     "water",
	BiomeRock:      "rock",
	BiomeDesert:    "desert",
	BiomeSnow:      "snow",
	BiomeIce:       "ice",
	BiomeLava:      "lava",
	BiomeFarmland:  "farmland",
	BiomeDarkRock:  "dark_rock",
	BiomeDarkGrass: "dark_grass",
}

func (b Biome) String() string {
	if int(b) < len(biomeNames) {
		return biomeNames[b]
	}
	return fmt.Sprintf("biome(%d)", uint8(b))
}

func (b Biome) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Biome) UnmarshalText(text []byte) error {
	for i, name := range biomeNames {
		if name == string(text) {
			*b = Biome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown biome %q", text)
}

// IsObstacle reports whether walkers are stopped by the tile.
func (b Biome) IsObstacle() bool {
	switch b {
	case BiomeWater, BiomeRock, BiomeLava, BiomeDarkRock:
		return true
	}
	return false
}

// IsSlippery reports whether heroes slide on the tile.
func (b Biome) IsSlippery() bool {
	return b == BiomeIce
}

// KeepsFootprints reports whether walking on the tile leaves a trail.
func (b Biome) KeepsFootprints() bool {
	return b == BiomeSnow
}
