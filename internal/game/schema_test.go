package game

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestWorldSchemaDescribesWorldData(t *testing.T) {
	data, err := json.Marshal(WorldSchema())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	doc := string(data)

	for _, want := range []string{`"species_id"`, `"player_index"`, `"destination"`, `"up_left"`, `"lava"`, `"yellow"`} {
		if !strings.Contains(doc, want) {
			t.Errorf("Expected the schema to mention %s", want)
		}
	}
}
