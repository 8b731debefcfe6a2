package orchestrator

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"testing"

	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/pyramid"
	"github.com/cadmatch/detect/internal/detect/raster"
)

const synthSize = 20

// buildSyntheticView builds a decoded training view whose left half is a
// high-frequency checkerboard (satisfying the edge-candidate threshold)
// and whose right half is a flat bright region (satisfying the
// stable-candidate threshold), so GenerateFeaturePoints has ample
// candidates of both kinds to cherry-pick from.
func buildSyntheticView(fileName string, diameter float64) TemplateView {
	gray := raster.NewGrayMap(synthSize, synthSize)
	depth := raster.NewDepthMap(synthSize, synthSize)
	hue := raster.NewGrayMap(synthSize, synthSize)
	sat := raster.NewGrayMap(synthSize, synthSize)
	val := raster.NewGrayMap(synthSize, synthSize)

	for y := 0; y < synthSize; y++ {
		for x := 0; x < synthSize; x++ {
			if x < synthSize/2 {
				if (x+y)%2 == 0 {
					gray.Set(x, y, 0)
				} else {
					gray.Set(x, y, 255)
				}
			} else {
				gray.Set(x, y, 200)
			}
			depth.Set(x, y, uint16(1000+(x%5)))
			hue.Set(x, y, 90)
			sat.Set(x, y, 60)
			val.Set(x, y, 60)
		}
	}

	return TemplateView{
		FileName: fileName,
		Gray:     gray,
		Depth:    depth,
		Hue:      hue,
		Sat:      sat,
		Val:      val,
		Camera:   model.Camera{},
		ObjBB:    image.Rect(0, 0, synthSize, synthSize),
		Diameter: diameter,
	}
}

type fakeViewLoader struct {
	views map[uint32][]TemplateView
	err   error
}

func (f fakeViewLoader) LoadViews(objID uint32, root string) ([]TemplateView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.views[objID], nil
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSession(dbPath)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func twoObjectLoader() fakeViewLoader {
	return fakeViewLoader{views: map[uint32][]TemplateView{
		1: {buildSyntheticView("obj1-view0", 120), buildSyntheticView("obj1-view1", 120)},
		2: {buildSyntheticView("obj2-view0", 80), buildSyntheticView("obj2-view1", 80)},
	}}
}

func TestTrainEndToEndPersistsAndMarksSessionReady(t *testing.T) {
	s := newTestSession(t)
	loader := twoObjectLoader()

	result, err := s.Train(loader, map[uint32]string{1: "objects/1", 2: "objects/2"}, 42)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if result.TemplateCount != 4 {
		t.Errorf("expected 4 trained templates, got %d", result.TemplateCount)
	}
	if result.HashTableCount == 0 {
		t.Error("expected at least one calibrated hash table")
	}
	if !s.Ready() {
		t.Error("expected session to be ready to detect after training")
	}
	if !s.Criteria().StatisticsReady() {
		t.Error("expected discovered statistics to be frozen after training")
	}
}

func TestTrainFailsWithNoRoots(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Train(twoObjectLoader(), nil, 1); err == nil {
		t.Fatal("expected an error when no template roots are given")
	}
}

func TestTrainFailsWhenNoViewsParse(t *testing.T) {
	s := newTestSession(t)
	loader := fakeViewLoader{err: fmt.Errorf("disk unavailable")}
	if _, err := s.Train(loader, map[uint32]string{1: "objects/1"}, 1); err == nil {
		t.Fatal("expected an error when every object root fails to load")
	}
}

func TestLoadRoundTripsTrainedState(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	trainer, err := NewSession(dbPath)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if _, err := trainer.Train(twoObjectLoader(), map[uint32]string{1: "objects/1", 2: "objects/2"}, 7); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	trainer.Close()

	reader, err := NewSession(dbPath)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer reader.Close()

	if err := reader.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reader.Ready() {
		t.Error("expected the reloaded session to be ready to detect")
	}
	if reader.templates.Len() != trainer.templates.Len() {
		t.Errorf("expected %d templates after reload, got %d", trainer.templates.Len(), reader.templates.Len())
	}
}

type fakeSceneLoader struct {
	scenes []SceneSnapshot
	err    error
}

func (f fakeSceneLoader) LoadScenes(dir string) ([]SceneSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scenes, nil
}

func TestDetectStreamsOneResultPerScene(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Train(twoObjectLoader(), map[uint32]string{1: "objects/1", 2: "objects/2"}, 3); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	view := buildSyntheticView("scene0", 120)
	scene := pyramid.Scene{
		Gray: view.Gray, Depth: view.Depth,
		Hue: view.Hue, Sat: view.Sat, Val: view.Val,
		Camera: view.Camera,
	}
	s.SetSceneLoader(fakeSceneLoader{scenes: []SceneSnapshot{
		{SceneID: "scene-a", Scene: scene},
		{SceneID: "scene-b", Scene: scene},
	}})

	results, errs := s.Detect(context.Background(), "scenes/")

	var seen []string
	for r := range results {
		seen = append(seen, r.SceneID)
	}
	if err := <-errs; err != nil {
		t.Fatalf("unexpected detection error: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 scene results, got %d (%v)", len(seen), seen)
	}
}

func TestDetectFailsWithoutSceneLoader(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Train(twoObjectLoader(), map[uint32]string{1: "objects/1", 2: "objects/2"}, 3); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	results, errs := s.Detect(context.Background(), "scenes/")
	for range results {
	}
	if err := <-errs; err == nil {
		t.Fatal("expected an error when no scene loader is installed")
	}
}

func TestDetectFailsWhenSessionNotTrained(t *testing.T) {
	s := newTestSession(t)
	s.SetSceneLoader(fakeSceneLoader{})

	results, errs := s.Detect(context.Background(), "scenes/")
	for range results {
	}
	if err := <-errs; err == nil {
		t.Fatal("expected an error when the session has no trained state")
	}
}
