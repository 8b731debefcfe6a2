package hashindex

import (
	"image"

	"github.com/cadmatch/detect/internal/detect/model"
)

// Populate inserts every template into a calibrated table's buckets: for
// each template, the triplet's three points are projected onto the
// template's canonical view, the two relative depths are bin-quantized via
// the table's calibrated ranges, and the three normal codes are read from
// the template's normal map. A template appears at most once per bucket
// (HashTable.Insert dedups by id).
func Populate(table *model.HashTable, templates []*model.Template, largestBox image.Rectangle, gridSize int) {
	for _, t := range templates {
		key, ok := keyForTemplate(table, t, largestBox, gridSize)
		if !ok {
			continue
		}
		table.Insert(key, t.ID)
	}
}

func keyForTemplate(table *model.HashTable, t *model.Template, largestBox image.Rectangle, gridSize int) (model.HashKey, bool) {
	if t.DepthMap == nil || t.NormalMap == nil {
		return model.HashKey{}, false
	}
	origin := t.ObjBB.Min
	size := largestBox.Size()

	pc := project(origin, size, gridSize, table.Triplet.C)
	p1 := project(origin, size, gridSize, table.Triplet.P1)
	p2 := project(origin, size, gridSize, table.Triplet.P2)

	dc := t.DepthMap.At(pc.X, pc.Y)
	d1 := t.DepthMap.At(p1.X, p1.Y)
	d2 := t.DepthMap.At(p2.X, p2.Y)
	if dc == 0 || d1 == 0 || d2 == 0 {
		return model.HashKey{}, false
	}

	rel1 := int32(d1) - int32(dc)
	rel2 := int32(d2) - int32(dc)

	b1 := table.BinIndex(rel1)
	b2 := table.BinIndex(rel2)
	if b1 < 0 || b2 < 0 {
		return model.HashKey{}, false
	}

	nc := octantIndex(t.NormalMap.At(pc.X, pc.Y))
	n1 := octantIndex(t.NormalMap.At(p1.X, p1.Y))
	n2 := octantIndex(t.NormalMap.At(p2.X, p2.Y))
	if nc < 0 || n1 < 0 || n2 < 0 {
		return model.HashKey{}, false
	}

	return model.MakeHashKey(
		byte(b1), byte(b2),
		byte(nc), byte(n1), byte(n2),
	), true
}

// octantIndex converts a single-bit octant code (1,2,4,...,128) into its
// 0..7 bit index, or -1 if the code is undefined (0) or malformed
// (more than one bit set).
func octantIndex(code byte) int {
	if code == 0 {
		return -1
	}
	idx := -1
	for i := 0; i < 8; i++ {
		if code&(1<<uint(i)) != 0 {
			if idx != -1 {
				return -1
			}
			idx = i
		}
	}
	return idx
}
