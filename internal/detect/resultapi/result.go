// Package resultapi streams per-scene detection results as
// newline-delimited JSON over HTTP, mirroring the in-process result stream
// the orchestrator produces for callers that drive detection directly from
// Go.
package resultapi

import "github.com/cadmatch/detect/internal/detect/model"

// MatchResult is the wire shape of one verified match: the object it
// matched and its bounding box in scene coordinates, as
// (min_x, min_y, max_x, max_y).
type MatchResult struct {
	ObjID uint32  `json:"obj_id"`
	ObjBB [4]int  `json:"obj_bb"`
	Score float64 `json:"score,omitempty"`
}

// SceneResult is one line of the NDJSON stream: every match found in a
// single scene.
type SceneResult struct {
	SceneID string        `json:"scene_id"`
	Matches []MatchResult `json:"matches"`
}

// NewSceneResult converts a detection pass's matches into the wire shape
// for one scene.
func NewSceneResult(sceneID string, matches []*model.Match) SceneResult {
	out := SceneResult{SceneID: sceneID, Matches: make([]MatchResult, len(matches))}
	for i, m := range matches {
		out.Matches[i] = MatchResult{
			ObjID: m.Template.ObjID,
			ObjBB: [4]int{m.BB.Min.X, m.BB.Min.Y, m.BB.Max.X, m.BB.Max.Y},
			Score: m.Score,
		}
	}
	return out
}
