package data

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/grovego/server/internal/world"
)

func TestRollFixedList(t *testing.T) {
	tbl := DefaultDropTable()
	rng := rand.New(rand.NewSource(1))

	got := tbl.Roll(string(world.TreeOak), rng)
	if len(got) != 1 || got[0] != world.ItemWood {
		t.Fatalf("oak drop = %v, want [wood]", got)
	}

	got = tbl.Roll(string(world.StoneGranite), rng)
	if len(got) != 1 || got[0] != world.ItemPebble {
		t.Fatalf("granite drop = %v, want [pebble]", got)
	}
}

func TestRollWeightedPick(t *testing.T) {
	tbl := DefaultDropTable()
	rng := rand.New(rand.NewSource(1))

	counts := map[world.ItemType]int{}
	for i := 0; i < 2000; i++ {
		got := tbl.Roll(string(world.TreeCherry), rng)
		if len(got) != 1 {
			t.Fatalf("weighted roll returned %d items, want exactly 1", len(got))
		}
		counts[got[0]]++
	}

	for _, it := range []world.ItemType{world.ItemWood, world.ItemApple, world.ItemSapling} {
		if counts[it] == 0 {
			t.Fatalf("%s never dropped in 2000 rolls: %v", it, counts)
		}
	}
	if counts[world.ItemWood] <= counts[world.ItemApple] || counts[world.ItemApple] <= counts[world.ItemSapling] {
		t.Fatalf("drop frequencies do not follow weights 60/25/15: %v", counts)
	}
}

func TestRollUnknownResource(t *testing.T) {
	tbl := DefaultDropTable()
	if got := tbl.Roll("lava", rand.New(rand.NewSource(1))); got != nil {
		t.Fatalf("unknown resource dropped %v", got)
	}
}

func TestLoadDropTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drops.yaml")
	src := `drops:
  - resource: oak
    items:
      - item: wood
        count: 2
  - resource: rock
    items:
      - item: pebble
        count: 1
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := LoadDropTable(path)
	if err != nil {
		t.Fatalf("LoadDropTable: %v", err)
	}
	if tbl.Count() != 2 {
		t.Fatalf("loaded %d resources, want 2", tbl.Count())
	}

	got := tbl.Roll("oak", rand.New(rand.NewSource(1)))
	if len(got) != 2 || got[0] != world.ItemWood || got[1] != world.ItemWood {
		t.Fatalf("oak drop = %v, want [wood wood]", got)
	}
}
