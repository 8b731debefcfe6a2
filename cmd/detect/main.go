// Command detect is the CLI front end for the detection cascade: it
// wires internal/detect/dataset's file-backed loaders into an
// orchestrator.Session and exposes train, detect, evaluate and refine
// as subcommands.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/cadmatch/detect/internal/detect/dataset"
	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/orchestrator"
	"github.com/cadmatch/detect/internal/detect/pyramid"
	"github.com/cadmatch/detect/internal/detect/quant"
	"github.com/cadmatch/detect/internal/detect/render"
	"github.com/cadmatch/detect/internal/detect/resultapi"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "train":
		err = runTrain(args)
	case "detect":
		err = runDetect(args)
	case "evaluate":
		err = runEvaluate(args)
	case "refine":
		err = runRefine(args)
	case "version":
		fmt.Printf("detect version %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", command, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`detect - template-based 6-DoF object detection

Usage: detect <command> [options]

Commands:
  train      Train a hash-indexed template set from per-object view roots
  detect     Run the detection cascade against a directory of scenes
  evaluate   Run detection and score it against ground-truth matches
  refine     Run particle-swarm pose refinement on one verified match
  version    Show the detect CLI version
  help       Show this help message

Examples:
  detect train -db templates.db -roots 1=objects/obj01,2=objects/obj02
  detect detect -db templates.db -scenes scenes/ -out results.ndjson
  detect evaluate -db templates.db -scenes scenes/ -gt ground_truth.json
  detect refine -db templates.db -match match.json -scenes scenes/ -scene-id 0000 -mesh obj01.obj`)
}

// parseRoots parses "objID=path,objID=path,..." into the map Train wants.
func parseRoots(spec string) (map[uint32]string, error) {
	roots := make(map[uint32]string)
	if spec == "" {
		return roots, nil
	}
	for _, pair := range strings.Split(spec, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed -roots entry %q, expected objID=path", pair)
		}
		id, err := strconv.ParseUint(kv[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed object id in %q: %w", pair, err)
		}
		roots[uint32(id)] = kv[1]
	}
	return roots, nil
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	dbPath := fs.String("db", "detect.db", "Path to the SQLite trained-state database")
	rootsSpec := fs.String("roots", "", "Comma-separated objID=path template roots (required)")
	seed := fs.Int64("seed", 1, "Deterministic RNG seed for feature-point selection and triplet generation")
	fs.Parse(args)

	if *rootsSpec == "" {
		return fmt.Errorf("-roots is required")
	}
	roots, err := parseRoots(*rootsSpec)
	if err != nil {
		return err
	}

	session, err := orchestrator.NewSession(*dbPath)
	if err != nil {
		return err
	}
	defer session.Close()

	result, err := session.Train(dataset.FileLoader{}, roots, *seed)
	if err != nil {
		return err
	}

	fmt.Printf("training run %d: %d templates, %d hash tables, %d failures\n",
		result.RunID, result.TemplateCount, result.HashTableCount, len(result.Failures))
	for _, f := range result.Failures {
		fmt.Printf("  failed: object %d %q: %s\n", f.ObjID, f.FileName, f.Error)
	}
	return nil
}

func runDetect(args []string) error {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	dbPath := fs.String("db", "detect.db", "Path to the SQLite trained-state database")
	sceneDir := fs.String("scenes", "", "Scene directory to detect against (required)")
	outPath := fs.String("out", "", "Write NDJSON results here instead of stdout")
	fs.Parse(args)

	if *sceneDir == "" {
		return fmt.Errorf("-scenes is required")
	}

	session, err := orchestrator.NewSession(*dbPath)
	if err != nil {
		return err
	}
	defer session.Close()
	if err := session.Load(); err != nil {
		return err
	}
	session.SetSceneLoader(dataset.FileLoader{})

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	results, errs := session.Detect(context.Background(), *sceneDir)
	enc := json.NewEncoder(out)
	sceneCount := 0
	tTotal := time.Now()
	tScene := time.Now()
	for r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
		sceneCount++
		fmt.Fprintf(os.Stderr, "  scene %s: %d matches, took %s\n", r.SceneID, len(r.Matches), time.Since(tScene))
		tScene = time.Now()
	}
	if err := <-errs; err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "detect: %d scenes, took %s\n", sceneCount, time.Since(tTotal))
	return nil
}

// groundTruth (read from a JSON file) maps a scene id to the objects
// expected to be found in it, for evaluate's scoring pass.
type groundTruth struct {
	Scenes map[string][]resultapi.MatchResult `json:"scenes"`
}

// evaluationSummary is the scored output evaluate writes: a
// precision/recall-style count per scene, grounded on the teacher's
// algo-compare tool's role of scoring an existing pipeline's output
// rather than implementing detection itself. Precision, Recall and F1Score
// mirror the original classifier's evaluation pass over its own TP/FP/FN
// totals.
type evaluationSummary struct {
	SceneCount      int                     `json:"scene_count"`
	TruePositives   int                     `json:"true_positives"`
	FalsePositives  int                     `json:"false_positives"`
	FalseNegatives  int                     `json:"false_negatives"`
	Precision       float64                 `json:"precision"`
	Recall          float64                 `json:"recall"`
	F1Score         float64                 `json:"f1_score"`
	PerScene        map[string][3]int       `json:"per_scene"` // [tp, fp, fn]
	Results         []resultapi.SceneResult `json:"results"`
}

func runEvaluate(args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	dbPath := fs.String("db", "detect.db", "Path to the SQLite trained-state database")
	sceneDir := fs.String("scenes", "", "Scene directory to detect against (required)")
	gtPath := fs.String("gt", "", "Ground-truth JSON file (required)")
	outPath := fs.String("out", "", "Write the scored summary here instead of stdout")
	iouThresh := fs.Float64("iou", 0.5, "Minimum bounding-box IoU to count a match as a true positive")
	plotPath := fs.String("plot", "", "Write a per-scene TP/FP/FN bar chart PNG here")
	fs.Parse(args)

	if *sceneDir == "" || *gtPath == "" {
		return fmt.Errorf("-scenes and -gt are required")
	}

	gtData, err := os.ReadFile(*gtPath)
	if err != nil {
		return fmt.Errorf("read ground truth: %w", err)
	}
	var gt groundTruth
	if err := json.Unmarshal(gtData, &gt); err != nil {
		return fmt.Errorf("parse ground truth: %w", err)
	}

	session, err := orchestrator.NewSession(*dbPath)
	if err != nil {
		return err
	}
	defer session.Close()
	if err := session.Load(); err != nil {
		return err
	}
	session.SetSceneLoader(dataset.FileLoader{})

	results, errs := session.Detect(context.Background(), *sceneDir)
	summary := evaluationSummary{PerScene: make(map[string][3]int)}
	for r := range results {
		summary.Results = append(summary.Results, r)
		tp, fp, fn := scoreScene(r.Matches, gt.Scenes[r.SceneID], *iouThresh)
		summary.PerScene[r.SceneID] = [3]int{tp, fp, fn}
		summary.SceneCount++
		summary.TruePositives += tp
		summary.FalsePositives += fp
		summary.FalseNegatives += fn
	}
	if err := <-errs; err != nil {
		return err
	}

	tp, fp, fn := float64(summary.TruePositives), float64(summary.FalsePositives), float64(summary.FalseNegatives)
	if tp+fp > 0 {
		summary.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		summary.Recall = tp / (tp + fn)
	}
	if summary.Precision+summary.Recall > 0 {
		summary.F1Score = 2 * summary.Precision * summary.Recall / (summary.Precision + summary.Recall)
	}

	if *plotPath != "" {
		if err := plotPerSceneCounts(summary, *plotPath); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// plotPerSceneCounts renders a grouped TP/FP/FN bar chart, one group per
// scene ordered by scene id, mirroring the original classifier's per-scene
// evaluation printout in graphical form.
func plotPerSceneCounts(summary evaluationSummary, path string) error {
	sceneIDs := make([]string, 0, len(summary.PerScene))
	for id := range summary.PerScene {
		sceneIDs = append(sceneIDs, id)
	}
	sort.Strings(sceneIDs)

	tp := make(plotter.Values, len(sceneIDs))
	fp := make(plotter.Values, len(sceneIDs))
	fn := make(plotter.Values, len(sceneIDs))
	for i, id := range sceneIDs {
		counts := summary.PerScene[id]
		tp[i], fp[i], fn[i] = float64(counts[0]), float64(counts[1]), float64(counts[2])
	}

	p := plot.New()
	p.Title.Text = "Per-scene evaluation"
	p.Y.Label.Text = "Count"
	p.NominalX(sceneIDs...)

	const barWidth = vg.Points(8)
	tpBars, err := plotter.NewBarChart(tp, barWidth)
	if err != nil {
		return err
	}
	tpBars.Color = plotutil.Color(0)
	tpBars.Offset = -barWidth

	fpBars, err := plotter.NewBarChart(fp, barWidth)
	if err != nil {
		return err
	}
	fpBars.Color = plotutil.Color(1)

	fnBars, err := plotter.NewBarChart(fn, barWidth)
	if err != nil {
		return err
	}
	fnBars.Color = plotutil.Color(2)
	fnBars.Offset = barWidth

	p.Add(tpBars, fpBars, fnBars)
	p.Legend.Add("TP", tpBars)
	p.Legend.Add("FP", fpBars)
	p.Legend.Add("FN", fnBars)
	p.Legend.Top = true

	width := vg.Length(max(6, len(sceneIDs))) * vg.Inch / 2
	return p.Save(width, 5*vg.Inch, path)
}

// scoreScene greedily pairs detected matches with ground-truth matches of
// the same object whose bounding-box IoU clears thresh, counting
// true/false positives and unmatched ground truth as false negatives.
func scoreScene(found, expected []resultapi.MatchResult, thresh float64) (tp, fp, fn int) {
	claimed := make([]bool, len(expected))
	for _, f := range found {
		bestIdx, bestIoU := -1, 0.0
		for i, e := range expected {
			if claimed[i] || e.ObjID != f.ObjID {
				continue
			}
			if iou := bboxIoU(f.ObjBB, e.ObjBB); iou > bestIoU {
				bestIdx, bestIoU = i, iou
			}
		}
		if bestIdx >= 0 && bestIoU >= thresh {
			claimed[bestIdx] = true
			tp++
		} else {
			fp++
		}
	}
	for _, c := range claimed {
		if !c {
			fn++
		}
	}
	return tp, fp, fn
}

func bboxIoU(a, b [4]int) float64 {
	ix0, iy0 := max(a[0], b[0]), max(a[1], b[1])
	ix1, iy1 := min(a[2], b[2]), min(a[3], b[3])
	if ix1 <= ix0 || iy1 <= iy0 {
		return 0
	}
	inter := float64((ix1 - ix0) * (iy1 - iy0))
	areaA := float64((a[2] - a[0]) * (a[3] - a[1]))
	areaB := float64((b[2] - b[0]) * (b[3] - b[1]))
	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// matchInput is the on-disk shape of the -match flag's file: a verified
// match as found by detect, named by template id rather than carrying the
// template itself, since templates live in the trained database.
type matchInput struct {
	TemplateID uint32  `json:"template_id"`
	BB         [4]int  `json:"bb"`
	Scale      float64 `json:"scale"`
}

func runRefine(args []string) error {
	fs := flag.NewFlagSet("refine", flag.ExitOnError)
	dbPath := fs.String("db", "detect.db", "Path to the SQLite trained-state database")
	matchPath := fs.String("match", "", "JSON file describing the verified match to refine (required)")
	sceneDir := fs.String("scenes", "", "Scene directory the match was found in (required)")
	sceneID := fs.String("scene-id", "", "Scene id within -scenes to refine against (required)")
	meshPath := fs.String("mesh", "", "Wavefront OBJ mesh for the matched object (required)")
	seed := fs.Int64("seed", 1, "Deterministic RNG seed for the particle swarm")
	outPath := fs.String("out", "", "Write the refined match here instead of stdout")
	fs.Parse(args)

	if *matchPath == "" || *sceneDir == "" || *sceneID == "" || *meshPath == "" {
		return fmt.Errorf("-match, -scenes, -scene-id and -mesh are required")
	}

	session, err := orchestrator.NewSession(*dbPath)
	if err != nil {
		return err
	}
	defer session.Close()
	if err := session.Load(); err != nil {
		return err
	}

	matchData, err := os.ReadFile(*matchPath)
	if err != nil {
		return fmt.Errorf("read match: %w", err)
	}
	var mi matchInput
	if err := json.Unmarshal(matchData, &mi); err != nil {
		return fmt.Errorf("parse match: %w", err)
	}
	tmpl, ok := session.Template(mi.TemplateID)
	if !ok {
		return fmt.Errorf("no trained template with id %d", mi.TemplateID)
	}

	mesh, err := dataset.LoadOBJMesh(*meshPath)
	if err != nil {
		return err
	}

	scenes, err := (dataset.FileLoader{}).LoadScenes(*sceneDir)
	if err != nil {
		return err
	}
	level, err := findLevel(session, scenes, *sceneID, mi.Scale)
	if err != nil {
		return err
	}

	match := buildMatch(tmpl, mi)
	refined, err := session.Refine(match, level, render.RasterRenderer{}, mesh, *seed)
	if err != nil {
		return err
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(refined.Pose.Vector6())
}

// findLevel rebuilds the pyramid for the named scene, the same way
// Detect's own cascade does, and returns the level whose scale matches
// wantScale most closely.
func findLevel(session *orchestrator.Session, scenes []orchestrator.SceneSnapshot, sceneID string, wantScale float64) (*pyramid.Level, error) {
	for _, s := range scenes {
		if s.SceneID != sceneID {
			continue
		}
		levels := pyramid.Build(s.Scene, session.Criteria(), quant.DefaultHueParams())
		best := levels[0]
		for _, l := range levels {
			if absFloat(l.Scale-wantScale) < absFloat(best.Scale-wantScale) {
				best = l
			}
		}
		return best, nil
	}
	return nil, fmt.Errorf("scene %q not found under the given -scenes directory", sceneID)
}

func buildMatch(tmpl *model.Template, mi matchInput) model.Match {
	return model.Match{
		Template: tmpl,
		BB:       image.Rect(mi.BB[0], mi.BB[1], mi.BB[2], mi.BB[3]),
		Scale:    mi.Scale,
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
