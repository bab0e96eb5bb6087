package world

import (
	"testing"

	"github.com/grovego/server/internal/biome"
)

// fixedClassifier always returns the same biome kind.
type fixedClassifier biome.Kind

func (c fixedClassifier) Classify(x, y float64) biome.Kind { return biome.Kind(c) }

func TestDecideTreeDeterministic(t *testing.T) {
	classify := fixedClassifier(biome.Meadow)
	base := decideTree(42, 0, 0, classify)
	for i := 0; i < 1000; i++ {
		got := decideTree(42, 0, 0, classify)
		if got != base {
			t.Fatalf("iteration %d: decision %+v differs from first %+v", i, got, base)
		}
	}
}

func TestDecideStoneDeterministic(t *testing.T) {
	for gx := -20; gx <= 20; gx++ {
		for gy := -20; gy <= 20; gy++ {
			a := decideStone(42, gx, gy)
			b := decideStone(42, gx, gy)
			if a != b {
				t.Fatalf("cell (%d,%d): %+v != %+v", gx, gy, a, b)
			}
		}
	}
}

func TestDecideTreeVariesWithSeed(t *testing.T) {
	classify := fixedClassifier(biome.Forest)
	same := 0
	total := 0
	for gx := 0; gx < 50; gx++ {
		a := decideTree(1, gx, 0, classify)
		b := decideTree(2, gx, 0, classify)
		total++
		if a == b {
			same++
		}
	}
	if same == total {
		t.Fatalf("seeds 1 and 2 produced identical decisions for all %d cells", total)
	}
}

func TestOriginStaysClear(t *testing.T) {
	classify := fixedClassifier(biome.Forest)
	for seed := int64(1); seed <= 50; seed++ {
		for gx := -2; gx <= 1; gx++ {
			for gy := -2; gy <= 1; gy++ {
				d := decideTree(seed, gx, gy, classify)
				if d.spawn && d.x*d.x+d.y*d.y < originClearRadius*originClearRadius {
					t.Fatalf("seed %d cell (%d,%d): tree at (%.1f, %.1f) inside clear radius",
						seed, gx, gy, d.x, d.y)
				}
				s := decideStone(seed, gx, gy)
				if s.spawn && s.x*s.x+s.y*s.y < originClearRadius*originClearRadius {
					t.Fatalf("seed %d cell (%d,%d): stone at (%.1f, %.1f) inside clear radius",
						seed, gx, gy, s.x, s.y)
				}
			}
		}
	}
}

func TestTreeStaysInsideCell(t *testing.T) {
	classify := fixedClassifier(biome.Forest)
	for gx := 2; gx < 100; gx++ {
		d := decideTree(42, gx, 5, classify)
		if !d.spawn {
			continue
		}
		cx := float64(gx)*GridSize + GridSize/2
		cy := 5*GridSize + GridSize/2
		if d.x < cx-maxCellOffset || d.x > cx+maxCellOffset {
			t.Fatalf("cell (%d,5): x=%.2f outside offset window around %.2f", gx, d.x, cx)
		}
		if d.y < cy-maxCellOffset || d.y > cy+maxCellOffset {
			t.Fatalf("cell (%d,5): y=%.2f outside offset window around %.2f", gx, d.y, cy)
		}
	}
}

func TestCherryRequiresMeadow(t *testing.T) {
	rocky := fixedClassifier(biome.Rocky)
	for gx := 2; gx < 400; gx++ {
		d := decideTree(42, gx, 3, rocky)
		if d.spawn && d.treeType == TreeCherry {
			t.Fatalf("cell (%d,3): cherry tree outside a meadow", gx)
		}
	}

	meadow := fixedClassifier(biome.Meadow)
	found := false
	for gx := 2; gx < 400 && !found; gx++ {
		d := decideTree(42, gx, 3, meadow)
		found = d.spawn && d.treeType == TreeCherry
	}
	if !found {
		t.Fatalf("no cherry tree in 400 meadow cells; chance %.2f should have produced one", cherryChance)
	}
}

func TestDecideTreeNilClassifier(t *testing.T) {
	for gx := 2; gx < 100; gx++ {
		d := decideTree(42, gx, 9, nil)
		if d.spawn && d.treeType == TreeCherry {
			t.Fatalf("cell (%d,9): cherry tree without a biome classifier", gx)
		}
	}
}

func TestCellOf(t *testing.T) {
	cases := []struct {
		x, y   float64
		gx, gy int
	}{
		{0, 0, 0, 0},
		{99.9, 99.9, 0, 0},
		{100, 100, 1, 1},
		{-0.1, -0.1, -1, -1},
		{-100, 250, -1, 2},
	}
	for _, c := range cases {
		gx, gy := CellOf(c.x, c.y)
		if gx != c.gx || gy != c.gy {
			t.Fatalf("CellOf(%.1f, %.1f) = (%d,%d), want (%d,%d)", c.x, c.y, gx, gy, c.gx, c.gy)
		}
	}
}
