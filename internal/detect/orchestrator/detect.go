package orchestrator

import (
	"context"
	"fmt"
	"sort"

	"github.com/cadmatch/detect/internal/detect/detecterr"
	"github.com/cadmatch/detect/internal/detect/hashindex"
	"github.com/cadmatch/detect/internal/detect/matcher"
	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/nms"
	"github.com/cadmatch/detect/internal/detect/objectness"
	"github.com/cadmatch/detect/internal/detect/pyramid"
	"github.com/cadmatch/detect/internal/detect/quant"
	"github.com/cadmatch/detect/internal/detect/resultapi"
)

// Detect satisfies resultapi.Detector: it resolves sceneDir through the
// session's installed SceneLoader and runs the full cascade — pyramid
// build, objectness, hashing, matching, cross-scale NMS — against every
// scene found there, streaming one resultapi.SceneResult per scene. The
// results channel closes when every scene has been processed; at most
// one error is ever sent, after which both channels close.
func (s *Session) Detect(ctx context.Context, sceneDir string) (<-chan resultapi.SceneResult, <-chan error) {
	results := make(chan resultapi.SceneResult)
	errs := make(chan error, 1)

	go func() {
		defer close(results)
		defer close(errs)

		if s.sceneLoader == nil {
			errs <- fmt.Errorf("orchestrator: no scene loader installed: %w", detecterr.ErrInputMissing)
			return
		}
		if err := s.requireReady(); err != nil {
			errs <- err
			return
		}

		scenes, err := s.sceneLoader.LoadScenes(sceneDir)
		if err != nil {
			errs <- fmt.Errorf("orchestrator: load scenes from %q: %w", sceneDir, err)
			return
		}

		for _, scene := range scenes {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			default:
			}

			matches := s.detectScene(scene.Scene)
			select {
			case results <- resultapi.NewSceneResult(scene.SceneID, matches):
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()

	return results, errs
}

// detectScene runs the cascade against one already-decoded scene and
// returns its surviving matches after cross-scale NMS.
func (s *Session) detectScene(scene pyramid.Scene) []*model.Match {
	c := s.criteria
	hueParams := quant.DefaultHueParams()
	levels := pyramid.Build(scene, c, hueParams)

	windowSize := model.Size{Width: c.LargestTemplate.Width, Height: c.LargestTemplate.Height}

	var all []model.Match
	for _, level := range levels {
		windows := objectness.Slide(level.Edgels, level.Index, windowSize, c)
		for _, w := range windows {
			hashindex.Vote(s.tables, w, level.Depth, level.Normals, c.TripletGridSize, c.MinVotes)
		}

		sceneMaps := matcher.SceneMaps{
			Depth:           level.Depth,
			Gray:            level.Gray,
			Hue:             level.Hue,
			NormalsSpread:   level.NormalsSpread,
			GradientsSpread: level.GradientsSpread,
		}
		found := matcher.RunCascade(sceneMaps, windows, s.templates, level.Scale, c)
		all = append(all, found...)
	}

	// Matches accumulate across levels run independently (and, within a
	// level, across concurrently evaluated windows); sort into a
	// canonical order before NMS so repeated runs over the same scene
	// are bit-identical regardless of goroutine scheduling.
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Scale != b.Scale {
			return a.Scale < b.Scale
		}
		if a.BB.Min.X != b.BB.Min.X {
			return a.BB.Min.X < b.BB.Min.X
		}
		if a.BB.Min.Y != b.BB.Min.Y {
			return a.BB.Min.Y < b.BB.Min.Y
		}
		return a.Template.ID < b.Template.ID
	})

	suppressed := nms.Suppress(all, c.OverlapFactor)
	out := make([]*model.Match, len(suppressed))
	for i := range suppressed {
		out[i] = &suppressed[i]
	}
	return out
}
