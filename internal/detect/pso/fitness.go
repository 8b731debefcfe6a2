package pso

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/cadmatch/detect/internal/detect/raster"
	"github.com/cadmatch/detect/internal/detect/render"
)

// GroundTruth is the scene-side data the fitness function compares a
// rendered pose against, all cropped to the same sub-image the renderer
// produced.
type GroundTruth struct {
	Depth   *raster.DepthMap
	Normals []r3.Vector // one per pixel, row-major, zero vector where undefined
	Width   int
	Height  int
	Edgels  *raster.FeatureMap
}

func (g GroundTruth) normalAt(x, y int) r3.Vector {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return r3.Vector{}
	}
	return g.Normals[y*g.Width+x]
}

// Fitness evaluates -sumD*sumU*sumE for a rendered candidate pose against
// ground truth: sumD rewards close depth agreement (tolerance depthTol),
// sumU rewards aligned surface normals, and sumE rewards the rendered
// silhouette's edges lying close to the scene's own depth edgels. Lower
// (more negative) is better; the original classifier defines the
// objective the same way.
func Fitness(gt GroundTruth, poseDepth *render.DepthImage, poseNormals *render.NormalsImage, depthTol float64) float64 {
	var sumD, sumU, sumE float64
	poseEdgeDist := edgeDistanceTransform(poseDepth)

	for y := 0; y < gt.Height; y++ {
		for x := 0; x < gt.Width; x++ {
			if gt.Edgels != nil && gt.Edgels.At(x, y) != 0 {
				sumE += 1 / (poseEdgeDist.at(x, y) + 1)
			}

			pd := poseDepth.At(x, y)
			if pd <= 0 {
				continue
			}
			gd := float64(gt.Depth.At(x, y))
			if gd == 0 {
				continue
			}

			dDiff := math.Abs(gd - pd)
			if dDiff <= depthTol {
				sumD += 1 / (dDiff + 1)
			} // dDiff beyond tolerance contributes 1/inf, i.e. nothing

			dot := math.Abs(gt.normalAt(x, y).Dot(poseNormals.At(x, y)))
			sumU += 1 / (dot + 1)
		}
	}

	return -sumD * sumU * sumE
}

// floatImage is a plain float64 grid used for the Laplacian response and
// the chamfer distance transform.
type floatImage struct {
	pix           []float64
	width, height int
}

func newFloatImage(w, h int) *floatImage {
	return &floatImage{pix: make([]float64, w*h), width: w, height: h}
}

func (f *floatImage) at(x, y int) float64 {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return 0
	}
	return f.pix[y*f.width+x]
}

func (f *floatImage) set(x, y int, v float64) {
	f.pix[y*f.width+x] = v
}

// edgeDistanceTransform approximates cv::distanceTransform over the
// silhouette boundary of a rendered depth image: a pixel is a boundary
// pixel if a 4-neighbour Laplacian of the depth buffer exceeds a small
// threshold (a silhouette edge or a depth discontinuity), and every other
// pixel's value is its L2 chamfer distance to the nearest boundary pixel.
func edgeDistanceTransform(depth *render.DepthImage) *floatImage {
	boundary := make([]bool, depth.Width*depth.Height)
	for y := 0; y < depth.Height; y++ {
		for x := 0; x < depth.Width; x++ {
			centre := depth.At(x, y)
			lap := 4*centre - depth.At(x-1, y) - depth.At(x+1, y) - depth.At(x, y-1) - depth.At(x, y+1)
			if math.Abs(lap) > 0.5 {
				boundary[y*depth.Width+x] = true
			}
		}
	}

	const inf = 1e9
	dist := newFloatImage(depth.Width, depth.Height)
	for y := 0; y < depth.Height; y++ {
		for x := 0; x < depth.Width; x++ {
			if boundary[y*depth.Width+x] {
				dist.set(x, y, 0)
			} else {
				dist.set(x, y, inf)
			}
		}
	}

	// Two-pass chamfer approximation of the Euclidean distance transform.
	chamferPass(dist, 1, 1)
	chamferPass(dist, -1, -1)
	return dist
}

// chamferPass sweeps the grid in the direction (dx, dy) (and its
// perpendicular), relaxing each pixel's distance against the
// already-visited neighbours behind it.
func chamferPass(d *floatImage, dx, dy int) {
	startY, endY, stepY := 0, d.height, 1
	if dy < 0 {
		startY, endY, stepY = d.height-1, -1, -1
	}
	startX, endX, stepX := 0, d.width, 1
	if dx < 0 {
		startX, endX, stepX = d.width-1, -1, -1
	}

	for y := startY; y != endY; y += stepY {
		for x := startX; x != endX; x += stepX {
			best := d.at(x, y)
			best = relax(best, d.at(x-stepX, y), 1)
			best = relax(best, d.at(x, y-stepY), 1)
			best = relax(best, d.at(x-stepX, y-stepY), math.Sqrt2)
			d.set(x, y, best)
		}
	}
}

func relax(best, neighbour, cost float64) float64 {
	if neighbour+cost < best {
		return neighbour + cost
	}
	return best
}
