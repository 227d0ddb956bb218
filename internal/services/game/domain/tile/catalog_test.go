package tile

import (
	"errors"
	"math/rand/v2"
	"testing"

	apperrors "github.com/louisbranch/carcassonne/internal/platform/errors"
	"github.com/louisbranch/carcassonne/internal/random"
)

func testCatalog(t *testing.T, n int) *Catalog {
	t.Helper()
	tiles := make([]Tile, 0, n)
	for i := n; i >= 1; i-- {
		tiles = append(tiles, Tile{ID: i, Path: "cloister.png", Sides: [4]Side{SideLand, SideLand, SideLand, SideLand}})
	}
	catalog, err := NewCatalog(tiles, WithRand(random.New(random.Seed{Hi: 1, Lo: 2})))
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	return catalog
}

func TestCatalogOrdersByID(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t, 5)
	tiles := catalog.Tiles()
	if catalog.Len() != 5 || len(tiles) != 5 {
		t.Fatalf("len = %d/%d, want 5", catalog.Len(), len(tiles))
	}
	for i, tl := range tiles {
		if tl.ID != i+1 {
			t.Fatalf("tiles[%d].ID = %d", i, tl.ID)
		}
	}

	tiles[0].Path = "mutated"
	if got, _ := catalog.Get(1); got.Path == "mutated" {
		t.Fatal("Tiles must return a copy")
	}
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	t.Parallel()

	tl := Tile{ID: 1, Path: "a.png", Sides: [4]Side{SideLand, SideLand, SideLand, SideLand}}
	if _, err := NewCatalog([]Tile{tl, tl}); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestCatalogGetUnknown(t *testing.T) {
	t.Parallel()

	_, err := testCatalog(t, 3).Get(99)
	if !errors.Is(err, ErrUnknownTile) {
		t.Fatalf("Get(99) error = %v, want ErrUnknownTile", err)
	}
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found kind, got %v", apperrors.KindOf(err))
	}
}

func TestRandomRespectsExclusion(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t, 10)
	exclude := Exclude(1, 2, 3, 4, 5, 6, 7, 8)
	for i := 0; i < 200; i++ {
		tl, err := catalog.Random(exclude)
		if err != nil {
			t.Fatalf("random: %v", err)
		}
		if _, excluded := exclude[tl.ID]; excluded {
			t.Fatalf("drew excluded tile %d", tl.ID)
		}
	}
}

func TestRandomCoversAllCandidates(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t, 6)
	seen := map[int]int{}
	const draws = 6000
	for i := 0; i < draws; i++ {
		tl, err := catalog.Random(nil)
		if err != nil {
			t.Fatalf("random: %v", err)
		}
		seen[tl.ID]++
	}
	if len(seen) != 6 {
		t.Fatalf("expected every tile drawn, got %v", seen)
	}
	for id, n := range seen {
		if n < draws/6/2 || n > draws/6*2 {
			t.Fatalf("tile %d drawn %d times, far from uniform", id, n)
		}
	}
}

func TestRandomExhausted(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t, 3)
	_, err := catalog.Random(Exclude(1, 2, 3))
	if !errors.Is(err, ErrCatalogExhausted) {
		t.Fatalf("error = %v, want ErrCatalogExhausted", err)
	}
	if !apperrors.IsNotFound(err) {
		t.Fatal("exhaustion should classify as not found")
	}

	empty, err := NewCatalog(nil, WithRand(rand.New(rand.NewPCG(0, 0))))
	if err != nil {
		t.Fatalf("new empty catalog: %v", err)
	}
	if _, err := empty.Random(nil); !errors.Is(err, ErrCatalogExhausted) {
		t.Fatalf("empty catalog error = %v", err)
	}
}

func TestRandomIgnoresUnknownExclusions(t *testing.T) {
	t.Parallel()

	catalog := testCatalog(t, 1)
	tl, err := catalog.Random(Exclude(42))
	if err != nil || tl.ID != 1 {
		t.Fatalf("Random = %+v, %v; want tile 1", tl, err)
	}
}
