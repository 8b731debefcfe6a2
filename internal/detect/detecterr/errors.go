// Package detecterr defines the sentinel error kinds surfaced by the
// detection cascade and its orchestrator.
//
// Per the cascade's error policy: only conditions that invalidate the whole
// pipeline are surfaced through these sentinels. Everything else (a bad
// pixel, an empty window, a render that degenerates for one particle) is
// handled locally by exclusion and never reaches a caller.
package detecterr

import "errors"

// ErrInputMissing indicates an expected template or scene asset is absent
// on disk (missing rgb/depth image, info.yml, or gt.yml).
var ErrInputMissing = errors.New("detect: required input missing")

// ErrInvariantViolated indicates a data-model invariant could not be
// established: too few feature-point candidates for a template, empty
// discovered criteria statistics, or a hash-table entry referencing an
// unknown template id. Training or loading aborts when this occurs.
var ErrInvariantViolated = errors.New("detect: invariant violated")

// ErrEmptyResult marks a stage that produced nothing to carry forward: a
// pyramid level with no admissible windows, or a window with no hash
// candidates. It is used internally for early-return control flow and is
// never returned across the orchestrator boundary.
var ErrEmptyResult = errors.New("detect: empty result")

// ErrRendererFailure indicates the renderer returned a degenerate image
// (zero-sized, or entirely background) for a pose-refinement candidate.
// It is surfaced only when every particle in a population fails to render.
var ErrRendererFailure = errors.New("detect: renderer failure")
