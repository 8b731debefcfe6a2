package nms

import (
	"image"
	"testing"

	"github.com/cadmatch/detect/internal/detect/model"
)

func makeMatch(score float64, rect image.Rectangle) model.Match {
	return model.Match{BB: rect, Score: score}
}

func TestSuppressKeepsHighestScoringOfOverlappingPair(t *testing.T) {
	a := makeMatch(0.9, image.Rect(0, 0, 10, 10))
	b := makeMatch(0.5, image.Rect(1, 1, 11, 11)) // heavily overlapping with a

	kept := Suppress([]model.Match{a, b}, 0.1)
	if len(kept) != 1 {
		t.Fatalf("expected 1 surviving match, got %d", len(kept))
	}
	if kept[0].Score != 0.9 {
		t.Errorf("expected the higher-scoring match to survive, got score %f", kept[0].Score)
	}
}

func TestSuppressKeepsBothNonOverlapping(t *testing.T) {
	a := makeMatch(0.9, image.Rect(0, 0, 10, 10))
	b := makeMatch(0.8, image.Rect(100, 100, 110, 110))

	kept := Suppress([]model.Match{a, b}, 0.1)
	if len(kept) != 2 {
		t.Fatalf("expected both non-overlapping matches to survive, got %d", len(kept))
	}
}

func TestSuppressOutputDescendingByScore(t *testing.T) {
	matches := []model.Match{
		makeMatch(0.3, image.Rect(0, 0, 5, 5)),
		makeMatch(0.9, image.Rect(100, 0, 105, 5)),
		makeMatch(0.6, image.Rect(200, 0, 205, 5)),
	}
	kept := Suppress(matches, 0.1)
	for i := 1; i < len(kept); i++ {
		if kept[i].Score > kept[i-1].Score {
			t.Fatalf("expected descending score order, got %v", kept)
		}
	}
}
