package store

import (
	"image"
	"testing"

	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/raster"
)

func sampleTemplate(id, objID uint32) *model.Template {
	depth := raster.NewDepthMap(4, 4)
	gradient := raster.NewFeatureMap(4, 4)
	normal := raster.NewFeatureMap(4, 4)
	for i := range depth.Pix {
		depth.Pix[i] = uint16(500 + i)
		gradient.Pix[i] = byte(i)
		normal.Pix[i] = byte(i * 2)
	}

	n := 3
	edge := make([]model.FeaturePoint, n)
	stable := make([]model.FeaturePoint, n)
	for i := 0; i < n; i++ {
		edge[i] = model.FeaturePoint{Point: image.Pt(i, i)}
		stable[i] = model.FeaturePoint{Point: image.Pt(i, i+1)}
	}

	return &model.Template{
		ID:          id,
		ObjID:       objID,
		FileName:    "obj01-view003.png",
		Diameter:    120.5,
		ResizeRatio: 0.8,
		ObjBB:       image.Rect(10, 10, 30, 40),
		Camera: model.Camera{
			K:    [9]float64{500, 0, 320, 0, 500, 240, 0, 0, 1},
			R:    [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
			T:    [3]float64{0, 0, 700},
			Elev: 0.3,
			Mode: "sampled",
		},
		MinDepth:     480,
		MaxDepth:     900,
		ObjArea:      1234.5,
		GradientMap:  gradient,
		NormalMap:    normal,
		DepthMap:     depth,
		EdgePoints:   edge,
		StablePoints: stable,
		Features: model.MatchingFeatures{
			Gradients:   []byte{1, 2, 3},
			Normals:     []byte{4, 5, 6},
			Depths:      []uint16{501, 502, 503},
			Hue:         []byte{7, 8, 9},
			DepthMedian: 502,
		},
	}
}

func TestSaveAndLoadTemplateRoundTrips(t *testing.T) {
	s := openTestStore(t)
	want := sampleTemplate(1, 7)

	if err := s.SaveTemplate(want); err != nil {
		t.Fatalf("SaveTemplate failed: %v", err)
	}

	got, err := s.LoadTemplate(1)
	if err != nil {
		t.Fatalf("LoadTemplate failed: %v", err)
	}

	if got.ObjID != want.ObjID || got.FileName != want.FileName {
		t.Errorf("identity mismatch: got %+v", got)
	}
	if got.ObjBB != want.ObjBB {
		t.Errorf("ObjBB mismatch: got %v, want %v", got.ObjBB, want.ObjBB)
	}
	if got.Camera != want.Camera {
		t.Errorf("Camera mismatch: got %+v, want %+v", got.Camera, want.Camera)
	}
	if len(got.EdgePoints) != len(want.EdgePoints) || got.EdgePoints[1] != want.EdgePoints[1] {
		t.Errorf("EdgePoints mismatch: got %v, want %v", got.EdgePoints, want.EdgePoints)
	}
	if got.DepthMap.Width != want.DepthMap.Width || got.DepthMap.At(2, 2) != want.DepthMap.At(2, 2) {
		t.Errorf("DepthMap mismatch")
	}
	if got.Features.DepthMedian != want.Features.DepthMedian {
		t.Errorf("Features.DepthMedian mismatch: got %f, want %f", got.Features.DepthMedian, want.Features.DepthMedian)
	}
}

func TestSaveTemplateOverwritesSameID(t *testing.T) {
	s := openTestStore(t)
	first := sampleTemplate(5, 1)
	if err := s.SaveTemplate(first); err != nil {
		t.Fatalf("first SaveTemplate failed: %v", err)
	}

	second := sampleTemplate(5, 1)
	second.FileName = "obj01-view999.png"
	if err := s.SaveTemplate(second); err != nil {
		t.Fatalf("second SaveTemplate failed: %v", err)
	}

	got, err := s.LoadTemplate(5)
	if err != nil {
		t.Fatalf("LoadTemplate failed: %v", err)
	}
	if got.FileName != "obj01-view999.png" {
		t.Errorf("expected overwrite, got FileName %q", got.FileName)
	}
}

func TestLoadTemplatesForObjectFiltersByObjID(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveTemplate(sampleTemplate(1, 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTemplate(sampleTemplate(2, 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTemplate(sampleTemplate(3, 20)); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadTemplatesForObject(10)
	if err != nil {
		t.Fatalf("LoadTemplatesForObject failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 templates for object 10, got %d", len(got))
	}
}

func TestDeleteTemplatesForObjectRemovesOnlyThatObject(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveTemplate(sampleTemplate(1, 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTemplate(sampleTemplate(2, 20)); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteTemplatesForObject(10); err != nil {
		t.Fatalf("DeleteTemplatesForObject failed: %v", err)
	}

	all, err := s.LoadAllTemplates()
	if err != nil {
		t.Fatalf("LoadAllTemplates failed: %v", err)
	}
	if len(all) != 1 || all[0].ObjID != 20 {
		t.Errorf("expected only object 20's template to remain, got %+v", all)
	}
}
