package world

import (
	"math"
	"math/rand"

	"github.com/grovego/server/internal/biome"
)

// Generation-grid geometry and spawn tuning. Clients reproduce the same
// world offline, so every constant here is part of the wire contract:
// changing one desyncs every existing client.
const (
	GridSize = 100.0 // px per generation cell

	treeSpawnChance  = 0.15
	stoneSpawnChance = 0.12

	maxCellOffset     = 30.0  // perturbation of the cell center
	originClearRadius = 150.0 // no resources on the spawn point
	resourceSpacing   = 60.0  // min distance to an already-known resource
	playerClearRadius = 50.0  // stones never materialize under a player

	cherryChance = 0.20 // rolled only on meadow cells; cherry exists nowhere else
)

// Per-family seed mixing constants. A fixed linear combination of the world
// seed and the cell coordinates — stable across versions, never rand-walked.
const (
	treeSeedX  = 73856093
	treeSeedY  = 19349663
	stoneSeedX = 83492791
	stoneSeedY = 52387561
)

// treeDecision is the pure generation outcome for one cell. Identical
// (seed, cell) inputs produce bit-identical decisions.
type treeDecision struct {
	spawn    bool
	x, y     float64
	treeType TreeType
}

type stoneDecision struct {
	spawn     bool
	x, y      float64
	stoneType StoneType
}

// decideTree evaluates the deterministic spawn decision for a tree cell.
// classify may be nil: generation then falls back to the biome-unaware
// distribution (biome lookup failure is never fatal).
func decideTree(worldSeed int64, gx, gy int, classify biome.Classifier) treeDecision {
	rng := rand.New(rand.NewSource(worldSeed + int64(gx)*treeSeedX + int64(gy)*treeSeedY))
	if rng.Float64() >= treeSpawnChance {
		return treeDecision{}
	}

	x := float64(gx)*GridSize + GridSize/2 + (rng.Float64()*2-1)*maxCellOffset
	y := float64(gy)*GridSize + GridSize/2 + (rng.Float64()*2-1)*maxCellOffset
	if math.Hypot(x, y) < originClearRadius {
		return treeDecision{}
	}

	typeRoll := rng.Float64()
	tt := TreeOak
	if classify != nil && classify.Classify(x, y) == biome.Meadow {
		switch {
		case typeRoll < cherryChance:
			tt = TreeCherry
		case typeRoll < 0.65:
			tt = TreeOak
		default:
			tt = TreePine
		}
	} else if typeRoll >= 0.55 {
		tt = TreePine
	}

	return treeDecision{spawn: true, x: x, y: y, treeType: tt}
}

// decideStone evaluates the deterministic spawn decision for a stone cell.
func decideStone(worldSeed int64, gx, gy int) stoneDecision {
	rng := rand.New(rand.NewSource(worldSeed + int64(gx)*stoneSeedX + int64(gy)*stoneSeedY))
	if rng.Float64() >= stoneSpawnChance {
		return stoneDecision{}
	}

	x := float64(gx)*GridSize + GridSize/2 + (rng.Float64()*2-1)*maxCellOffset
	y := float64(gy)*GridSize + GridSize/2 + (rng.Float64()*2-1)*maxCellOffset
	if math.Hypot(x, y) < originClearRadius {
		return stoneDecision{}
	}

	st := StoneRock
	if rng.Float64() >= 0.7 {
		st = StoneGranite
	}

	return stoneDecision{spawn: true, x: x, y: y, stoneType: st}
}

// CellOf returns the generation-grid cell containing a world position.
func CellOf(x, y float64) (gx, gy int) {
	return int(math.Floor(x / GridSize)), int(math.Floor(y / GridSize))
}
