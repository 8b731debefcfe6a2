package matcher

import (
	"image"
	"testing"

	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/quant"
	"github.com/cadmatch/detect/internal/detect/raster"
)

// buildPerfectScene builds a scene whose maps are exactly a template's own
// training maps placed at a chosen window anchor, so the cascade should
// accept the template there with a perfect score.
func buildPerfectScene(tmpl *model.Template, anchor image.Point, sceneW, sceneH int) SceneMaps {
	depth := raster.NewDepthMap(sceneW, sceneH)
	gray := raster.NewGrayMap(sceneW, sceneH)
	hue := raster.NewGrayMap(sceneW, sceneH)
	normals := raster.NewFeatureMap(sceneW, sceneH)
	gradients := raster.NewFeatureMap(sceneW, sceneH)

	for i, p := range tmpl.StablePoints {
		abs := p.Point.Add(anchor)
		depth.Set(abs.X, abs.Y, tmpl.Features.Depths[i])
		normals.Set(abs.X, abs.Y, tmpl.Features.Normals[i])
		hue.Set(abs.X, abs.Y, tmpl.Features.Hue[i])
	}
	for i, p := range tmpl.EdgePoints {
		abs := p.Point.Add(anchor)
		gradients.Set(abs.X, abs.Y, tmpl.Features.Gradients[i])
		gray.Set(abs.X, abs.Y, 255) // bright enough that quant.Magnitude clears min_gradient_magnitude at the admitting offset
	}

	return SceneMaps{
		Depth:           depth,
		Gray:            gray,
		Hue:             hue,
		NormalsSpread:   quant.Spread(normals, 2),
		GradientsSpread: quant.Spread(gradients, 2),
	}
}

func buildSyntheticTemplate(n int) *model.Template {
	edge := make([]model.FeaturePoint, n)
	stable := make([]model.FeaturePoint, n)
	mf := model.MatchingFeatures{
		Gradients: make([]byte, n),
		Normals:   make([]byte, n),
		Depths:    make([]uint16, n),
		Hue:       make([]byte, n),
	}
	for i := 0; i < n; i++ {
		edge[i] = model.FeaturePoint{Point: image.Pt(i%10, i/10)}
		stable[i] = model.FeaturePoint{Point: image.Pt(i%10, 10+i/10)}
		mf.Gradients[i] = byte(1 << uint(i%5))
		mf.Normals[i] = byte(1 << uint(i%8))
		mf.Depths[i] = uint16(1000 + i)
		mf.Hue[i] = byte(90)
	}
	mf.DepthMedian = 1000 + float64(n)/2

	return &model.Template{
		ID:           1,
		ObjBB:        image.Rect(0, 0, 10, 20),
		Diameter:     100,
		EdgePoints:   edge,
		StablePoints: stable,
		Features:     mf,
	}
}

func TestEvaluateCandidateAcceptsPerfectMatch(t *testing.T) {
	n := 20
	tmpl := buildSyntheticTemplate(n)
	anchor := image.Pt(5, 5)
	scene := buildPerfectScene(tmpl, anchor, 40, 40)

	c := model.DefaultCriteria()
	c.FeaturePointCount = n
	c.MinGradientMagnitude = 1
	c.DepthScaleFactor = 1
	c.DepthConstantTestIV = 1000 // generous tolerance for this synthetic scene

	w := &model.Window{Rect: image.Rectangle{Min: anchor, Max: anchor.Add(tmpl.ObjBB.Size())}}

	m, ok := EvaluateCandidate(scene, w, tmpl, 1.0, c)
	if !ok {
		t.Fatal("expected the cascade to accept an exact replica of the template's own training scene")
	}
	if m.Score < 0.99 {
		t.Errorf("expected a near-perfect score, got %f", m.Score)
	}
	if m.BB.Dx() != tmpl.ObjBB.Dx() || m.BB.Dy() != tmpl.ObjBB.Dy() {
		t.Errorf("expected match bounding box sized to the template's object box, got %v", m.BB)
	}
}

func TestEvaluateCandidateRejectsEmptyScene(t *testing.T) {
	n := 20
	tmpl := buildSyntheticTemplate(n)
	c := model.DefaultCriteria()
	c.FeaturePointCount = n

	empty := SceneMaps{
		Depth:           raster.NewDepthMap(40, 40),
		Gray:            raster.NewGrayMap(40, 40),
		Hue:             raster.NewGrayMap(40, 40),
		NormalsSpread:   raster.NewFeatureMap(40, 40),
		GradientsSpread: raster.NewFeatureMap(40, 40),
	}
	w := &model.Window{Rect: image.Rect(5, 5, 15, 25)}

	_, ok := EvaluateCandidate(empty, w, tmpl, 1.0, c)
	if ok {
		t.Error("expected the cascade to reject a window with no matching scene data")
	}
}

func TestRunCascadeCollectsAcceptedMatches(t *testing.T) {
	n := 20
	tmpl := buildSyntheticTemplate(n)
	anchor := image.Pt(3, 3)
	scene := buildPerfectScene(tmpl, anchor, 40, 40)

	c := model.DefaultCriteria()
	c.FeaturePointCount = n
	c.MinGradientMagnitude = 1
	c.DepthScaleFactor = 1
	c.DepthConstantTestIV = 1000

	store := model.NewTemplateStore()
	store.Add(tmpl)

	w := &model.Window{
		Rect:       image.Rectangle{Min: anchor, Max: anchor.Add(tmpl.ObjBB.Size())},
		Candidates: []model.WindowCandidate{{TemplateID: tmpl.ID, Votes: 5}},
	}

	matches := RunCascade(scene, []*model.Window{w}, store, 1.0, c)
	if len(matches) != 1 {
		t.Fatalf("expected exactly one match, got %d", len(matches))
	}
}
