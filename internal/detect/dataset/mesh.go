package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/cadmatch/detect/internal/detect/render"
)

// LoadOBJMesh parses a minimal Wavefront OBJ file into a render.Mesh:
// "v x y z" vertices, "vn x y z" normals and "f a b c" triangular faces
// (1-indexed, vertex-only or vertex/texture/normal triplets). Materials,
// texture coordinates and non-triangular faces are not supported; this is
// a CLI convenience for feeding Refine a mesh, not a general-purpose OBJ
// importer.
func LoadOBJMesh(path string) (render.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return render.Mesh{}, fmt.Errorf("dataset: open mesh %s: %w", path, err)
	}
	defer f.Close()

	var mesh render.Mesh
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return render.Mesh{}, fmt.Errorf("dataset: mesh %s: %w", path, err)
			}
			mesh.Vertices = append(mesh.Vertices, v)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return render.Mesh{}, fmt.Errorf("dataset: mesh %s: %w", path, err)
			}
			mesh.Normals = append(mesh.Normals, n)
		case "f":
			face, err := parseFace(fields[1:])
			if err != nil {
				return render.Mesh{}, fmt.Errorf("dataset: mesh %s: %w", path, err)
			}
			mesh.Faces = append(mesh.Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return render.Mesh{}, fmt.Errorf("dataset: read mesh %s: %w", path, err)
	}

	if len(mesh.Normals) == 0 {
		mesh.Normals = make([]r3.Vector, len(mesh.Vertices))
	}
	return mesh, nil
}

func parseVec3(fields []string) (r3.Vector, error) {
	if len(fields) < 3 {
		return r3.Vector{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	vals := make([]float64, 3)
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return r3.Vector{}, fmt.Errorf("parse component %q: %w", fields[i], err)
		}
		vals[i] = v
	}
	return r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

func parseFace(fields []string) ([3]int, error) {
	if len(fields) != 3 {
		return [3]int{}, fmt.Errorf("only triangular faces are supported, got %d vertices", len(fields))
	}
	var face [3]int
	for i, f := range fields {
		idxStr := strings.SplitN(f, "/", 2)[0]
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			return [3]int{}, fmt.Errorf("parse face index %q: %w", f, err)
		}
		face[i] = idx - 1
	}
	return face, nil
}
