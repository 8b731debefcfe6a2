package orchestrator

import (
	"fmt"
	"image"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/cadmatch/detect/internal/detect/detecterr"
	"github.com/cadmatch/detect/internal/detect/hashindex"
	"github.com/cadmatch/detect/internal/detect/matcher"
	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/obslog"
	"github.com/cadmatch/detect/internal/detect/quant"
	"github.com/cadmatch/detect/internal/detect/raster"
	"github.com/cadmatch/detect/internal/detect/store"
)

// depthBinCount is the fixed number of calibrated relative-depth bins
// every hash table partitions its axis into.
const depthBinCount = 5

// TrainResult summarizes a completed training run.
type TrainResult struct {
	RunID         int64
	TemplateCount int
	HashTableCount int
	Failures      []store.TrainingFailure
}

type rawTemplate struct {
	id    uint32
	objID uint32
	view  TemplateView
}

// Train parses every object's template views through loader, derives
// feature maps, feature points and matching features for each, folds the
// Criteria's discovered statistics across the whole training set, trains
// the hash tables jointly over every template, and persists the result.
// roots maps an object id to the root loader.LoadViews should resolve for
// that object.
//
// Training proceeds in two passes because the edgel-extraction magnitude
// threshold used by the second pass is itself derived from the first
// pass's discovered SmallestDiameter and DepthScaleFactor statistics:
// pass one decodes every view and folds diameter/depth/extent statistics;
// pass two, run once those statistics are set on the Criteria, computes
// per-template quantized maps, feature points, matching features and edgel
// counts. MinEdgelCount is discovered from those counts, and the
// statistics are marked discovered, only after pass two.
//
// seed makes the run reproducible: every per-template feature-point
// draw and the triplet-hash generation are derived from it via a single
// threaded *rand.Rand, per the cascade's determinism requirements.
func (s *Session) Train(loader ViewLoader, roots map[uint32]string, seed int64) (*TrainResult, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("orchestrator: no template roots given: %w", detecterr.ErrInputMissing)
	}

	runID, err := s.store.CreateTrainingRun(time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("orchestrator: create training run: %w", err)
	}

	c := model.DefaultCriteria()
	if c.DepthScaleFactor == 0 {
		// depthScaleFactor is a dataset-wide depth-unit constant (e.g. how
		// many raw depth units make up one millimetre), not something the
		// templates themselves can reveal; identity scale is the sane
		// default absent dataset-specific calibration.
		c.DepthScaleFactor = 1.0
	}

	objIDs := make([]uint32, 0, len(roots))
	for id := range roots {
		objIDs = append(objIDs, id)
	}
	sort.Slice(objIDs, func(i, j int) bool { return objIDs[i] < objIDs[j] })

	var failures []store.TrainingFailure
	var raws []rawTemplate
	nextID := uint32(1)

	smallestDiameter := -1.0
	var minDepthSeen, maxDepthSeen uint16
	smallestTemplate := model.Size{}
	var largestWidth, largestHeight int

	for _, objID := range objIDs {
		root := roots[objID]
		views, err := loader.LoadViews(objID, root)
		if err != nil {
			failures = append(failures, store.TrainingFailure{ObjID: objID, FileName: root, Error: err.Error()})
			continue
		}
		for _, v := range views {
			if v.Gray == nil || v.Depth == nil || v.Hue == nil || v.Sat == nil || v.Val == nil {
				failures = append(failures, store.TrainingFailure{ObjID: objID, FileName: v.FileName, Error: "view is missing a required raster channel"})
				continue
			}
			id := nextID
			nextID++
			raws = append(raws, rawTemplate{id: id, objID: objID, view: v})

			minD, maxD := depthExtrema(v.Depth, v.ObjBB)
			if maxD > maxDepthSeen {
				maxDepthSeen = maxD + uint16(float64(maxD)*0.1)
			}
			if minD > 0 && (minDepthSeen == 0 || minD < minDepthSeen) {
				minDepthSeen = minD - uint16(float64(minD)*0.1)
			}
			if smallestDiameter < 0 || v.Diameter < smallestDiameter {
				smallestDiameter = v.Diameter
			}

			area := v.ObjBB.Dx() * v.ObjBB.Dy()
			if smallestTemplate.Width == 0 || area < smallestTemplate.Width*smallestTemplate.Height {
				smallestTemplate = model.Size{Width: v.ObjBB.Dx(), Height: v.ObjBB.Dy()}
			}
			if v.ObjBB.Dx() > largestWidth {
				largestWidth = v.ObjBB.Dx()
			}
			if v.ObjBB.Dy() > largestHeight {
				largestHeight = v.ObjBB.Dy()
			}
		}
	}

	if len(raws) == 0 {
		s.store.FinishTrainingRun(runID, time.Now().Unix(), 0, "failed", failures)
		return nil, fmt.Errorf("orchestrator: no templates parsed from %d object root(s): %w", len(roots), detecterr.ErrInvariantViolated)
	}

	c.MinDepth = minDepthSeen
	c.MaxDepth = maxDepthSeen
	c.SmallestDiameter = smallestDiameter
	c.SmallestTemplate = smallestTemplate
	c.LargestTemplate = model.Size{Width: largestWidth, Height: largestHeight}
	largestBox := image.Rect(0, 0, largestWidth, largestHeight)

	rng := rand.New(rand.NewSource(seed))
	hueParams := quant.DefaultHueParams()
	templates := model.NewTemplateStore()
	var edgelCounts []int

	for _, raw := range raws {
		v := raw.view
		templateRNG := rand.New(rand.NewSource(rng.Int63()))

		edge, stable, err := matcher.GenerateFeaturePoints(v.Gray, v.ObjBB, c.FeaturePointCount, templateRNG)
		if err != nil {
			// GenerateFeaturePoints wraps detecterr.ErrEmptyResult for
			// internal early-return control flow; at the training
			// boundary an insufficient-candidate template is a hard
			// training failure, per the cascade's error policy, so it is
			// re-wrapped as ErrInvariantViolated rather than leaking the
			// internal sentinel past the orchestrator.
			failures = append(failures, store.TrainingFailure{
				ObjID: raw.objID, FileName: v.FileName,
				Error: fmt.Errorf("%w: %v", detecterr.ErrInvariantViolated, err).Error(),
			})
			continue
		}

		gradients := quant.Gradients(v.Gray, quant.GradientParams{MinMagnitude: c.MinGradientMagnitude})
		normals := quant.Normals(v.Depth, quant.NormalParams{MaxDepthDiff: c.MaxDepthDiff, MaxDepth: c.MaxDepth})
		remappedHue := quant.RemapHue(v.Hue, v.Sat, v.Val, hueParams)

		features := matcher.ExtractFeatures(v.ObjBB.Min, edge, stable, gradients, normals, v.Depth, remappedHue)

		minD, maxD := depthExtrema(v.Depth, v.ObjBB)
		resizeRatio := v.ResizeRatio
		if resizeRatio == 0 {
			resizeRatio = 1
		}

		t := &model.Template{
			ID:       raw.id,
			ObjID:    raw.objID,
			FileName: v.FileName,

			Diameter:    v.Diameter,
			ResizeRatio: resizeRatio,
			ObjBB:       v.ObjBB,

			Camera: v.Camera,

			MinDepth: minD,
			MaxDepth: maxD,
			ObjArea:  surfaceCoverage(v.Depth, v.ObjBB),

			GradientMap: gradients,
			NormalMap:   normals,
			DepthMap:    v.Depth,

			EdgePoints:   edge,
			StablePoints: stable,
			Features:     features,
		}
		if err := t.Validate(c.FeaturePointCount); err != nil {
			failures = append(failures, store.TrainingFailure{ObjID: raw.objID, FileName: v.FileName, Error: err.Error()})
			continue
		}
		templates.Add(t)

		threshold := c.ObjectnessDiameterThresh * c.SmallestDiameter * c.DepthScaleFactor
		edgels := quant.Edgels(v.Depth, quant.EdgelParams{MinDepth: minD, MaxDepth: maxD, MagnitudeThreshold: threshold})
		edgelCounts = append(edgelCounts, countSet(edgels, v.ObjBB))
	}

	if templates.Len() == 0 {
		s.store.FinishTrainingRun(runID, time.Now().Unix(), 0, "failed", failures)
		return nil, fmt.Errorf("orchestrator: every template failed validation: %w", detecterr.ErrInvariantViolated)
	}

	minEdgels, ok := discoverMinEdgelCount(edgelCounts)
	if !ok {
		s.store.FinishTrainingRun(runID, time.Now().Unix(), templates.Len(), "failed", failures)
		return nil, fmt.Errorf("orchestrator: no template produced a usable edgel count: %w", detecterr.ErrInvariantViolated)
	}
	c.MinEdgelCount = minEdgels
	c.MarkStatisticsDiscovered()

	trainedTemplates := templates.All()
	triplets := hashindex.GenerateTriplets(rng, c.TripletGridSize, c.TablesCount, c.TrainingMultiplier, c.TripletNeighbourhoodLimit)

	tables := make([]*model.HashTable, 0, len(triplets))
	for _, tr := range triplets {
		table := model.NewHashTable(tr)
		if err := hashindex.CalibrateBins(table, trainedTemplates, largestBox, c.TripletGridSize, depthBinCount); err != nil {
			obslog.Logf("orchestrator: skipping hash table for triplet %+v: %v", tr, err)
			continue
		}
		hashindex.Populate(table, trainedTemplates, largestBox, c.TripletGridSize)
		tables = append(tables, table)
	}
	if len(tables) == 0 {
		s.store.FinishTrainingRun(runID, time.Now().Unix(), templates.Len(), "failed", failures)
		return nil, fmt.Errorf("orchestrator: no hash table could be calibrated: %w", detecterr.ErrInvariantViolated)
	}

	if err := s.store.SaveCriteria(c); err != nil {
		return nil, fmt.Errorf("orchestrator: persist criteria: %w", err)
	}
	for _, t := range trainedTemplates {
		if err := s.store.SaveTemplate(t); err != nil {
			return nil, fmt.Errorf("orchestrator: persist template %d: %w", t.ID, err)
		}
	}
	if err := s.store.SaveHashTables(tables); err != nil {
		return nil, fmt.Errorf("orchestrator: persist hash tables: %w", err)
	}

	s.criteria = c
	s.templates = templates
	s.tables = tables

	status := "completed"
	if len(failures) > 0 {
		status = "completed_with_failures"
	}
	if err := s.store.FinishTrainingRun(runID, time.Now().Unix(), templates.Len(), status, failures); err != nil {
		return nil, fmt.Errorf("orchestrator: finish training run: %w", err)
	}

	return &TrainResult{
		RunID:          runID,
		TemplateCount:  templates.Len(),
		HashTableCount: len(tables),
		Failures:       failures,
	}, nil
}

// depthExtrema returns the minimum and maximum non-zero depth sampled
// inside bb, or (0, 0) if bb contains no valid depth.
func depthExtrema(dm *raster.DepthMap, bb image.Rectangle) (uint16, uint16) {
	var min, max uint16
	for y := bb.Min.Y; y < bb.Max.Y; y++ {
		for x := bb.Min.X; x < bb.Max.X; x++ {
			d := dm.At(x, y)
			if d == 0 {
				continue
			}
			if min == 0 || d < min {
				min = d
			}
			if d > max {
				max = d
			}
		}
	}
	return min, max
}

// surfaceCoverage returns the fraction of bb's pixels with non-zero depth,
// used as the template's recorded object-area statistic in place of a
// gray-intensity foreground threshold, since depth validity is already
// the codebase's standard notion of "foreground" pixel.
func surfaceCoverage(dm *raster.DepthMap, bb image.Rectangle) float64 {
	area := bb.Dx() * bb.Dy()
	if area <= 0 {
		return 0
	}
	covered := 0
	for y := bb.Min.Y; y < bb.Max.Y; y++ {
		for x := bb.Min.X; x < bb.Max.X; x++ {
			if dm.At(x, y) != 0 {
				covered++
			}
		}
	}
	return float64(covered) / float64(area)
}

// countSet counts the set (255) pixels of an edgel mask inside bb.
func countSet(mask *raster.FeatureMap, bb image.Rectangle) int {
	count := 0
	for y := bb.Min.Y; y < bb.Max.Y; y++ {
		for x := bb.Min.X; x < bb.Max.X; x++ {
			if mask.At(x, y) == quant.EdgelSet {
				count++
			}
		}
	}
	return count
}

// discoverMinEdgelCount trims outliers beyond two standard deviations
// from counts and returns the smallest surviving positive count, matching
// the training set's minimum-observed-edgel-count statistic used as the
// objectness admission floor.
func discoverMinEdgelCount(counts []int) (int, bool) {
	positive := make([]int, 0, len(counts))
	for _, c := range counts {
		if c > 0 {
			positive = append(positive, c)
		}
	}
	if len(positive) == 0 {
		return 0, false
	}

	mean := 0.0
	for _, c := range positive {
		mean += float64(c)
	}
	mean /= float64(len(positive))

	variance := 0.0
	for _, c := range positive {
		d := float64(c) - mean
		variance += d * d
	}
	variance /= float64(len(positive))
	stddev := math.Sqrt(variance)

	min := -1
	for _, c := range positive {
		if stddev > 0 && math.Abs(float64(c)-mean) > 2*stddev {
			continue
		}
		if min < 0 || c < min {
			min = c
		}
	}
	if min < 0 {
		// every sample was rejected as an outlier; fall back to the raw
		// minimum rather than discovering no statistic at all.
		min = positive[0]
		for _, c := range positive[1:] {
			if c < min {
				min = c
			}
		}
	}
	return min, true
}

