package orchestrator

import (
	"fmt"
	"math/rand"

	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/pso"
	"github.com/cadmatch/detect/internal/detect/pyramid"
	"github.com/cadmatch/detect/internal/detect/quant"
	"github.com/cadmatch/detect/internal/detect/render"
)

// Refine runs particle-swarm pose refinement on one verified match against
// the pyramid level it was found at, rendering mesh through renderer
// (which the caller must serialize all refinement calls into, per the
// cascade's single-threaded-renderer-context concurrency model) and
// returns the match with its Pose field set to the discovered 6-DoF
// offset.
func (s *Session) Refine(match model.Match, level *pyramid.Level, renderer render.Renderer, mesh render.Mesh, seed int64) (model.Match, error) {
	if err := mesh.Validate(); err != nil {
		return match, fmt.Errorf("orchestrator: refine: %w", err)
	}

	c := s.criteria
	gt := pso.BuildGroundTruth(level.Depth, level.Edgels, quant.NormalParams{
		MaxDepthDiff: c.MaxDepthDiff,
		MaxDepth:     c.MaxDepth,
	})

	rng := rand.New(rand.NewSource(seed))
	refined, err := pso.Refine(renderer, mesh, gt, match, c, rng)
	if err != nil {
		return match, fmt.Errorf("orchestrator: refine match for template %d: %w", match.Template.ID, err)
	}
	return refined, nil
}
