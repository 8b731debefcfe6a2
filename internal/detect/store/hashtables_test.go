package store

import (
	"image"
	"testing"

	"github.com/cadmatch/detect/internal/detect/model"
)

func sampleHashTable(cx, cy int) *model.HashTable {
	ht := model.NewHashTable(model.Triplet{
		C:  image.Pt(cx, cy),
		P1: image.Pt(cx+1, cy),
		P2: image.Pt(cx, cy+1),
	})
	ht.BinRanges = [5]model.BinRange{
		{Low: model.MinRelativeDepth, High: -100},
		{Low: -100, High: -10},
		{Low: -10, High: 10},
		{Low: 10, High: 100},
		{Low: 100, High: model.MaxRelativeDepth + 1},
	}
	key := model.MakeHashKey(2, 3, 1, 1, 1)
	ht.Insert(key, 7)
	ht.Insert(key, 9)
	ht.Insert(model.MakeHashKey(0, 0, 0, 0, 0), 7)
	return ht
}

func TestSaveAndLoadHashTablesRoundTrips(t *testing.T) {
	s := openTestStore(t)
	for _, id := range []uint32{7, 9} {
		if err := s.SaveTemplate(sampleTemplate(id, 1)); err != nil {
			t.Fatalf("SaveTemplate %d failed: %v", id, err)
		}
	}
	tables := []*model.HashTable{sampleHashTable(1, 1), sampleHashTable(5, 5)}

	if err := s.SaveHashTables(tables); err != nil {
		t.Fatalf("SaveHashTables failed: %v", err)
	}

	got, err := s.LoadHashTables()
	if err != nil {
		t.Fatalf("LoadHashTables failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 hash tables, got %d", len(got))
	}
	if !got[0].Triplet.Equal(tables[0].Triplet) {
		t.Errorf("triplet mismatch: got %+v, want %+v", got[0].Triplet, tables[0].Triplet)
	}
	if got[0].BinRanges != tables[0].BinRanges {
		t.Errorf("bin ranges mismatch: got %+v, want %+v", got[0].BinRanges, tables[0].BinRanges)
	}

	bucket := got[0].Buckets[model.MakeHashKey(2, 3, 1, 1, 1)]
	if len(bucket) != 2 {
		t.Fatalf("expected 2 deduplicated template ids in bucket, got %v", bucket)
	}
}

func TestSaveHashTablesReplacesPreviousSet(t *testing.T) {
	s := openTestStore(t)
	for _, id := range []uint32{7, 9} {
		if err := s.SaveTemplate(sampleTemplate(id, 1)); err != nil {
			t.Fatalf("SaveTemplate %d failed: %v", id, err)
		}
	}
	if err := s.SaveHashTables([]*model.HashTable{sampleHashTable(1, 1), sampleHashTable(2, 2)}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveHashTables([]*model.HashTable{sampleHashTable(9, 9)}); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadHashTables()
	if err != nil {
		t.Fatalf("LoadHashTables failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the second save to fully replace the first, got %d tables", len(got))
	}
}
