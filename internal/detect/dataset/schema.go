// Package dataset is a reference ViewLoader/SceneLoader implementation
// for the directory-of-PNGs-plus-YAML layout the detection cascade's
// training and scene roots conventionally use: rgb/NNNN.png,
// depth/NNNN.png and a metadata sidecar. On-disk dataset layout is an
// external collaborator to the cascade itself (any caller can supply
// its own loaders instead of this package), so this is one concrete,
// replaceable implementation rather than part of the cascade's
// contract.
package dataset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// cameraYAML mirrors model.Camera's row-major intrinsics/extrinsics as
// flat float slices, the natural YAML encoding for fixed-size matrices.
type cameraYAML struct {
	K       [9]float64 `yaml:"k"`
	R       [9]float64 `yaml:"r"`
	T       [3]float64 `yaml:"t"`
	Elev    float64    `yaml:"elev"`
	Azimuth float64    `yaml:"azimuth"`
	Mode    string     `yaml:"mode"`
}

type bboxYAML struct {
	X, Y, Width, Height int
}

type templateEntryYAML struct {
	File        string     `yaml:"file"`
	ObjBB       bboxYAML   `yaml:"obj_bb"`
	Diameter    float64    `yaml:"diameter"`
	ResizeRatio float64    `yaml:"resize_ratio"`
	Camera      cameraYAML `yaml:"camera"`
}

type templateInfoYAML struct {
	Templates []templateEntryYAML `yaml:"templates"`
}

type sceneEntryYAML struct {
	ID     string     `yaml:"id"`
	Camera cameraYAML `yaml:"camera"`
}

type sceneInfoYAML struct {
	Scenes []sceneEntryYAML `yaml:"scenes"`
}

func loadYAML[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	var out T
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", path, err)
	}
	return &out, nil
}
