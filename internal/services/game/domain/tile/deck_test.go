package tile

import "testing"

func TestStandardDeck(t *testing.T) {
	t.Parallel()

	deck := StandardDeck()
	if len(deck) != 72 {
		t.Fatalf("deck size = %d, want 72", len(deck))
	}
	for i, tl := range deck {
		if tl.ID != i+1 {
			t.Fatalf("deck[%d].ID = %d, want %d", i, tl.ID, i+1)
		}
		if err := tl.Validate(); err != nil {
			t.Fatalf("deck[%d] invalid: %v", i, err)
		}
	}

	start := deck[StartTileID-1]
	if start.Path != "city1rwe.png" {
		t.Fatalf("start tile path = %q, want city1rwe.png", start.Path)
	}
	want := [4]Side{SideCastle, SideRoad, SideLand, SideRoad}
	if start.Sides != want {
		t.Fatalf("start tile sides = %v, want %v", start.Sides, want)
	}
	if start.Side(North) != SideCastle || start.Side(South) != SideLand {
		t.Fatalf("unexpected start tile edges: %+v", start)
	}
}

func TestStandardDeckCounts(t *testing.T) {
	t.Parallel()

	counts := map[string]int{}
	special := 0
	for _, tl := range StandardDeck() {
		counts[tl.Path]++
		if tl.Special {
			special++
		}
	}
	if counts["road2sw.png"] != 9 || counts["road2ns.png"] != 8 || counts["city1rwe.png"] != 4 {
		t.Fatalf("unexpected deck composition: %v", counts)
	}
	if special != 12 {
		t.Fatalf("special tiles = %d, want 12", special)
	}
}

func TestParseSide(t *testing.T) {
	t.Parallel()

	side, err := ParseSide("  Road ")
	if err != nil || side != SideRoad {
		t.Fatalf("ParseSide = %q, %v; want road", side, err)
	}
	if _, err := ParseSide("river"); err == nil {
		t.Fatal("expected unknown side error")
	}
}

func TestValidateRejectsBadTiles(t *testing.T) {
	t.Parallel()

	sides := [4]Side{SideLand, SideLand, SideLand, SideLand}
	tests := []struct {
		name string
		tile Tile
	}{
		{name: "zero id", tile: Tile{Path: "a.png", Sides: sides}},
		{name: "missing path", tile: Tile{ID: 1, Sides: sides}},
		{name: "bad side", tile: Tile{ID: 1, Path: "a.png", Sides: [4]Side{SideLand, "lake", SideLand, SideLand}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.tile.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
