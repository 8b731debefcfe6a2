// Package config loads the detection cascade's tunable Criteria from a
// JSON file on top of the built-in defaults, following the teacher's
// pointer-field-overlay pattern (internal/config.TuningConfig): every
// field is optional in the file, and only fields present override
// model.DefaultCriteria().
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cadmatch/detect/internal/detect/model"
)

// DefaultConfigPath is a conventional location for a tuning-override
// file. cmd/detect does not read it.
const DefaultConfigPath = "config/criteria.json"

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// Overlay mirrors model.Criteria's tunable fields as optional pointers, so
// a partial JSON document only overrides the fields it names. Discovered
// statistics are never part of the overlay: they come only from training
// or from a persisted, already-frozen Criteria.
type Overlay struct {
	TripletGridSize           *int     `json:"triplet_grid_size,omitempty"`
	TablesCount               *int     `json:"tables_count,omitempty"`
	TrainingMultiplier        *int     `json:"training_multiplier,omitempty"`
	FeaturePointCount         *int     `json:"feature_point_count,omitempty"`
	MinGradientMagnitude      *float64 `json:"min_gradient_magnitude,omitempty"`
	MaxDepthDiff              *float64 `json:"max_depth_diff,omitempty"`
	DepthConstantTestIV       *float64 `json:"depth_constant_test_iv,omitempty"`
	MinVotes                  *int     `json:"min_votes,omitempty"`
	WindowStep                *int     `json:"window_step,omitempty"`
	FeatureSpreadPatchOffset  *int     `json:"feature_spread_patch_offset,omitempty"`
	ObjectnessFactor          *float64 `json:"objectness_factor,omitempty"`
	MatchFactor               *float64 `json:"match_factor,omitempty"`
	OverlapFactor             *float64 `json:"overlap_factor,omitempty"`
	ObjectnessDiameterThresh  *float64 `json:"objectness_diameter_threshold,omitempty"`
	TripletNeighbourhoodLimit *int     `json:"triplet_neighbourhood_limit,omitempty"`
	ColorTestTolerance        *float64 `json:"color_test_tolerance,omitempty"`
	NeighbourhoodStart        *int     `json:"neighbourhood_start,omitempty"`
	NeighbourhoodEnd          *int     `json:"neighbourhood_end,omitempty"`
	LevelsDown                *int     `json:"levels_down,omitempty"`
	LevelsUp                  *int     `json:"levels_up,omitempty"`
	ScaleFactor               *float64 `json:"scale_factor,omitempty"`
	PSOParticleCount          *int     `json:"pso_particle_count,omitempty"`
	PSOIterations             *int     `json:"pso_iterations,omitempty"`
	PSOInertia                *float64 `json:"pso_inertia,omitempty"`
	PSOCognitive              *float64 `json:"pso_cognitive,omitempty"`
	PSOSocial                 *float64 `json:"pso_social,omitempty"`
	PSODepthTolerance         *float64 `json:"pso_depth_tolerance,omitempty"`
	PSOBoundingBoxMargin      *int     `json:"pso_bounding_box_margin,omitempty"`
}

// Load reads a JSON overlay file, applies it on top of
// model.DefaultCriteria(), validates the result and returns it. Fields
// omitted from the file keep their default value.
func Load(path string) (*model.Criteria, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("detect config: file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("detect config: stat failed: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("detect config: file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("detect config: read failed: %w", err)
	}
	return Parse(data)
}

// Parse applies a JSON overlay document's bytes on top of
// model.DefaultCriteria() and validates the result. Exposed separately
// from Load for tests and for callers that already hold the bytes (e.g.
// an embedded default).
func Parse(data []byte) (*model.Criteria, error) {
	var ov Overlay
	if err := json.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("detect config: parse failed: %w", err)
	}

	c := model.DefaultCriteria()
	ov.applyTo(c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("detect config: invalid criteria: %w", err)
	}
	return c, nil
}

func (ov Overlay) applyTo(c *model.Criteria) {
	setInt(&c.TripletGridSize, ov.TripletGridSize)
	setInt(&c.TablesCount, ov.TablesCount)
	setInt(&c.TrainingMultiplier, ov.TrainingMultiplier)
	setInt(&c.FeaturePointCount, ov.FeaturePointCount)
	setFloat(&c.MinGradientMagnitude, ov.MinGradientMagnitude)
	setFloat(&c.MaxDepthDiff, ov.MaxDepthDiff)
	setFloat(&c.DepthConstantTestIV, ov.DepthConstantTestIV)
	setInt(&c.MinVotes, ov.MinVotes)
	setInt(&c.WindowStep, ov.WindowStep)
	setInt(&c.FeatureSpreadPatchOffset, ov.FeatureSpreadPatchOffset)
	setFloat(&c.ObjectnessFactor, ov.ObjectnessFactor)
	setFloat(&c.MatchFactor, ov.MatchFactor)
	setFloat(&c.OverlapFactor, ov.OverlapFactor)
	setFloat(&c.ObjectnessDiameterThresh, ov.ObjectnessDiameterThresh)
	setInt(&c.TripletNeighbourhoodLimit, ov.TripletNeighbourhoodLimit)
	setFloat(&c.ColorTestTolerance, ov.ColorTestTolerance)
	setInt(&c.Neighbourhood.Start, ov.NeighbourhoodStart)
	setInt(&c.Neighbourhood.End, ov.NeighbourhoodEnd)
	setInt(&c.LevelsDown, ov.LevelsDown)
	setInt(&c.LevelsUp, ov.LevelsUp)
	setFloat(&c.ScaleFactor, ov.ScaleFactor)
	setInt(&c.PSOParticleCount, ov.PSOParticleCount)
	setInt(&c.PSOIterations, ov.PSOIterations)
	setFloat(&c.PSOInertia, ov.PSOInertia)
	setFloat(&c.PSOCognitive, ov.PSOCognitive)
	setFloat(&c.PSOSocial, ov.PSOSocial)
	setFloat(&c.PSODepthTolerance, ov.PSODepthTolerance)
	setInt(&c.PSOBoundingBoxMargin, ov.PSOBoundingBoxMargin)
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
