package model

import "image"

// WindowCandidate is one hashing-stage vote result: a template that
// appeared in at least one table's bucket for this window, with its
// accumulated vote count.
type WindowCandidate struct {
	TemplateID uint32
	Votes      int
}

// Window is an objectness-admitted rectangle at one pyramid level, carrying
// the ordered candidate list the hashing stage attaches to it. The
// candidate list's maximum size equals the number of hash tables.
type Window struct {
	Rect  image.Rectangle
	Level int

	Candidates []WindowCandidate
}

// HasCandidates reports whether hashing found any candidate templates for
// this window. Per the cascade's error policy, a window with an empty
// candidate list is discarded rather than treated as an error.
func (w *Window) HasCandidates() bool {
	return len(w.Candidates) > 0
}
