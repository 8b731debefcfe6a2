package hashindex

import (
	"image"
	"math/rand"
	"testing"

	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/raster"
)

func TestGenerateTripletsAreUniqueAndWithinGrid(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	triplets := GenerateTriplets(rng, 12, 20, 10, 3)

	if len(triplets) != 20 {
		t.Fatalf("expected 20 triplets, got %d", len(triplets))
	}
	for i, tr := range triplets {
		for _, p := range []image.Point{tr.C, tr.P1, tr.P2} {
			if p.X < 0 || p.X >= 12 || p.Y < 0 || p.Y >= 12 {
				t.Fatalf("triplet %d point %v outside 12x12 grid", i, p)
			}
		}
		for j := i + 1; j < len(triplets); j++ {
			if tr.Equal(triplets[j]) {
				t.Fatalf("triplets %d and %d are equal as sets", i, j)
			}
		}
	}
}

func buildTestTemplate(id uint32, box image.Rectangle, depthAt func(x, y int) uint16, normalAt func(x, y int) byte) *model.Template {
	dm := raster.NewDepthMap(box.Max.X, box.Max.Y)
	nm := raster.NewFeatureMap(box.Max.X, box.Max.Y)
	for y := 0; y < box.Max.Y; y++ {
		for x := 0; x < box.Max.X; x++ {
			dm.Set(x, y, depthAt(x, y))
			nm.Set(x, y, normalAt(x, y))
		}
	}
	return &model.Template{ID: id, ObjBB: box, DepthMap: dm, NormalMap: nm}
}

func TestCalibratePopulateAndVoteRoundTrip(t *testing.T) {
	box := image.Rect(0, 0, 12, 12)
	templates := []*model.Template{
		buildTestTemplate(1, box, func(x, y int) uint16 { return uint16(1000 + x*5) }, func(x, y int) byte { return 1 << uint((x+y)%8) }),
		buildTestTemplate(2, box, func(x, y int) uint16 { return uint16(1200 + y*3) }, func(x, y int) byte { return 1 << uint((x*2+y)%8) }),
	}

	table := model.NewHashTable(model.Triplet{C: image.Pt(6, 6), P1: image.Pt(3, 3), P2: image.Pt(9, 9)})
	if err := CalibrateBins(table, templates, box, 12, 5); err != nil {
		t.Fatalf("CalibrateBins failed: %v", err)
	}
	if !table.RangesPartitionFull() {
		t.Fatal("expected calibrated ranges to fully partition the relative-depth interval")
	}

	Populate(table, templates, box, 12)
	if len(table.Buckets) == 0 {
		t.Fatal("expected at least one populated bucket")
	}

	// A window anchored at the template's own origin and matching its
	// canonical depth/normal data should vote for that template.
	w := &model.Window{Rect: box}
	Vote([]*model.HashTable{table}, w, templates[0].DepthMap, templates[0].NormalMap, 12, 1)
	if !w.HasCandidates() {
		t.Fatal("expected the scene-identical window to receive at least one candidate vote")
	}

	found := false
	for _, c := range w.Candidates {
		if c.TemplateID == 1 {
			found = true
		}
	}
	if !found {
		t.Error("expected template 1 to be among the voted candidates for its own scene")
	}
}

func TestVoteSkipsOutOfBoundsTriplet(t *testing.T) {
	table := model.NewHashTable(model.Triplet{C: image.Pt(6, 6), P1: image.Pt(0, 0), P2: image.Pt(11, 11)})
	table.BinRanges = [5]model.BinRange{
		{Low: model.MinRelativeDepth, High: -100},
		{Low: -100, High: -10},
		{Low: -10, High: 10},
		{Low: 10, High: 100},
		{Low: 100, High: model.MaxRelativeDepth + 1},
	}
	dm := raster.NewDepthMap(4, 4) // smaller than the 12x12 grid anchor
	nm := raster.NewFeatureMap(4, 4)

	w := &model.Window{Rect: image.Rect(0, 0, 4, 4)}
	Vote([]*model.HashTable{table}, w, dm, nm, 12, 1)
	if w.HasCandidates() {
		t.Error("expected no candidates when the triplet projects outside the scene bounds")
	}
}
