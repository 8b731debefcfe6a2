// Package model holds the data model shared by every stage of the
// detection cascade: Criteria, Template, HashTable, Window, Match and
// Particle, per the cascade's data model. Templates and hash tables are
// built once and are immutable afterwards; Windows, Matches and Particles
// live only within a single scene's detection or a single pose-refinement
// run.
package model

import "fmt"

// DepthDeviationStep is one entry of the depth-deviation correction
// function: for depths at or above MinDepth (and below the next entry's
// MinDepth), the tolerance ratio used by cascade test I is Ratio.
//
// Grounded on the step-function-of-depth pattern the example corpus uses
// for scale-dependent thresholds (near/mid/far depth buckets).
type DepthDeviationStep struct {
	MinDepth float64
	Ratio    float64
}

// DepthDeviationFunc is a step function of depth used by cascade test I to
// compute the allowed relative-size deviation at a given observed depth.
// Entries must be sorted ascending by MinDepth; the first entry's MinDepth
// is conventionally 0.
type DepthDeviationFunc []DepthDeviationStep

// Eval returns the tolerance ratio for the deepest step whose MinDepth is
// at or below depth. If depth is below every step, the first step's ratio
// is used. An empty function returns 0 (no tolerance).
func (f DepthDeviationFunc) Eval(depth float64) float64 {
	if len(f) == 0 {
		return 0
	}
	ratio := f[0].Ratio
	for _, step := range f {
		if depth < step.MinDepth {
			break
		}
		ratio = step.Ratio
	}
	return ratio
}

// DefaultDepthDeviationFunc is a representative near/mid/far tolerance
// schedule: tighter tolerance close up, looser tolerance far away where
// sensor noise dominates.
func DefaultDepthDeviationFunc() DepthDeviationFunc {
	return DepthDeviationFunc{
		{MinDepth: 0, Ratio: 0.10},
		{MinDepth: 500, Ratio: 0.15},
		{MinDepth: 1500, Ratio: 0.20},
		{MinDepth: 4000, Ratio: 0.30},
	}
}

// Neighbourhood is the per-pixel square window each cascade test searches
// for an admitting offset, inclusive on both ends.
type Neighbourhood struct {
	Start, End int
}

// Criteria bundles the cascade's tunables together with the statistics
// discovered from the training set. Tunables are fixed at construction;
// discovered statistics are filled in by the training pass and frozen
// before detection begins.
type Criteria struct {
	// Tunables.
	TripletGridSize           int           // reference grid is TripletGridSize x TripletGridSize (default 12)
	TablesCount               int           // number of hash tables (default 100)
	TrainingMultiplier        int           // candidate triplets sampled per kept table (default e.g. 10)
	FeaturePointCount         int           // N, feature points per set (default 100)
	MinGradientMagnitude      float64       // gradient quantization admission threshold
	MaxDepthDiff              float64       // max abs depth delta between neighbours when computing normals
	DepthDeviation            DepthDeviationFunc
	DepthConstantTestIV       float64 // depth_k in test IV
	MinVotes                  int     // hashing admission threshold (default 3)
	WindowStep                int     // objectness sliding-window step, pixels
	FeatureSpreadPatchOffset  int     // spread neighbourhood is (2*offset+1)^2
	ObjectnessFactor          float64
	MatchFactor               float64 // match_factor, default 0.6
	OverlapFactor             float64 // NMS overlap_factor, default 0.1
	ObjectnessDiameterThresh  float64
	TripletNeighbourhoodLimit int // max offset of p1,p2 from centre c (default 3)
	ColorTestTolerance        float64 // tColorTest, default 5 (0..180 hue scale)
	Neighbourhood             Neighbourhood

	// Scene pyramid tunables.
	LevelsDown  int     // number of levels below the native scale (default 2)
	LevelsUp    int     // number of levels above the native scale (default 1)
	ScaleFactor float64 // per-level scale ratio (default 1.2)

	// Pose refiner (PSO) tunables.
	PSOParticleCount      int     // population size (default 100)
	PSOIterations         int     // iteration count (default 100)
	PSOInertia            float64 // w (default 0.85)
	PSOCognitive          float64 // c1 (default 0.2)
	PSOSocial             float64 // c2 (default 0.2)
	PSODepthTolerance     float64 // tD, depth-diff tolerance in the sumD term (default 20)
	PSOBoundingBoxMargin  int     // pixels the match bounding box is inflated by before refinement (default 15)

	// Discovered statistics (set by training, frozen before detection).
	MinDepth           uint16
	MaxDepth           uint16
	SmallestDiameter   float64
	MinEdgelCount      int
	DepthScaleFactor   float64
	SmallestTemplate   Size
	LargestTemplate    Size
	statisticsFrozen   bool
}

// Size is an integer width/height pair, used for the smallest/largest
// trained template extents.
type Size struct {
	Width, Height int
}

// DefaultCriteria returns tunables matching the defaults named throughout
// the specification. Discovered statistics are left zero-valued and
// StatisticsReady reports false until MarkStatisticsDiscovered is called.
func DefaultCriteria() *Criteria {
	return &Criteria{
		TripletGridSize:           12,
		TablesCount:               100,
		TrainingMultiplier:        10,
		FeaturePointCount:         100,
		MinGradientMagnitude:      40,
		MaxDepthDiff:              20,
		DepthDeviation:            DefaultDepthDeviationFunc(),
		DepthConstantTestIV:       2.0,
		MinVotes:                  3,
		WindowStep:                5,
		FeatureSpreadPatchOffset:  2,
		ObjectnessFactor:          1.0,
		MatchFactor:               0.6,
		OverlapFactor:             0.1,
		ObjectnessDiameterThresh:  0.1,
		TripletNeighbourhoodLimit: 3,
		ColorTestTolerance:        5,
		Neighbourhood:             Neighbourhood{Start: -2, End: 2},
		LevelsDown:                2,
		LevelsUp:                  1,
		ScaleFactor:               1.2,
		PSOParticleCount:          100,
		PSOIterations:             100,
		PSOInertia:                0.85,
		PSOCognitive:              0.2,
		PSOSocial:                 0.2,
		PSODepthTolerance:         20,
		PSOBoundingBoxMargin:      15,
	}
}

// Validate checks the tunables are in usable ranges. It does not check
// discovered statistics; call StatisticsReady for that.
func (c *Criteria) Validate() error {
	switch {
	case c.TripletGridSize <= 0:
		return fmt.Errorf("model: TripletGridSize must be positive, got %d", c.TripletGridSize)
	case c.TablesCount <= 0:
		return fmt.Errorf("model: TablesCount must be positive, got %d", c.TablesCount)
	case c.FeaturePointCount <= 0:
		return fmt.Errorf("model: FeaturePointCount must be positive, got %d", c.FeaturePointCount)
	case c.MatchFactor <= 0 || c.MatchFactor > 1:
		return fmt.Errorf("model: MatchFactor must be in (0, 1], got %f", c.MatchFactor)
	case c.OverlapFactor < 0 || c.OverlapFactor > 1:
		return fmt.Errorf("model: OverlapFactor must be in [0, 1], got %f", c.OverlapFactor)
	case c.MinVotes <= 0:
		return fmt.Errorf("model: MinVotes must be positive, got %d", c.MinVotes)
	case c.WindowStep <= 0:
		return fmt.Errorf("model: WindowStep must be positive, got %d", c.WindowStep)
	case c.FeatureSpreadPatchOffset < 0:
		return fmt.Errorf("model: FeatureSpreadPatchOffset must be non-negative, got %d", c.FeatureSpreadPatchOffset)
	case c.LevelsDown < 0:
		return fmt.Errorf("model: LevelsDown must be non-negative, got %d", c.LevelsDown)
	case c.LevelsUp < 0:
		return fmt.Errorf("model: LevelsUp must be non-negative, got %d", c.LevelsUp)
	case c.ScaleFactor <= 1:
		return fmt.Errorf("model: ScaleFactor must be greater than 1, got %f", c.ScaleFactor)
	case c.PSOParticleCount <= 0:
		return fmt.Errorf("model: PSOParticleCount must be positive, got %d", c.PSOParticleCount)
	case c.PSOIterations <= 0:
		return fmt.Errorf("model: PSOIterations must be positive, got %d", c.PSOIterations)
	case c.PSOBoundingBoxMargin < 0:
		return fmt.Errorf("model: PSOBoundingBoxMargin must be non-negative, got %d", c.PSOBoundingBoxMargin)
	}
	return nil
}

// LevelCount returns the total number of pyramid levels: LevelsDown + 1 +
// LevelsUp.
func (c *Criteria) LevelCount() int {
	return c.LevelsDown + 1 + c.LevelsUp
}

// LevelScale returns the scale factor at pyramid level i (0-indexed):
// ScaleFactor^(i - LevelsDown).
func (c *Criteria) LevelScale(i int) float64 {
	exp := i - c.LevelsDown
	return pow(c.ScaleFactor, exp)
}

func pow(base float64, exp int) float64 {
	if exp == 0 {
		return 1
	}
	neg := exp < 0
	if neg {
		exp = -exp
	}
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	if neg {
		return 1 / result
	}
	return result
}

// MinThreshold returns the cascade's early-out admission threshold for N
// feature points: ceil(N * MatchFactor).
func (c *Criteria) MinThreshold() int {
	n := c.FeaturePointCount
	num := float64(n) * c.MatchFactor
	th := int(num)
	if float64(th) < num {
		th++
	}
	return th
}

// MarkStatisticsDiscovered freezes the discovered-statistics section after
// a training pass populates it. Detection and hash-table construction
// refuse to run against un-frozen criteria.
func (c *Criteria) MarkStatisticsDiscovered() {
	c.statisticsFrozen = true
}

// StatisticsReady reports whether discovered statistics have been
// established by training (or by loading a persisted Criteria).
func (c *Criteria) StatisticsReady() bool {
	return c.statisticsFrozen
}
