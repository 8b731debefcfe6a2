package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"image"

	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/raster"
)

// SaveTemplate inserts or replaces one trained template. Templates are
// immutable once trained, so a second call with the same ID is treated as
// a full overwrite rather than an error.
func (s *Store) SaveTemplate(t *model.Template) error {
	cameraJSON, err := json.Marshal(t.Camera)
	if err != nil {
		return fmt.Errorf("store: marshal camera: %w", err)
	}
	edgeJSON, err := json.Marshal(t.EdgePoints)
	if err != nil {
		return fmt.Errorf("store: marshal edge points: %w", err)
	}
	stableJSON, err := json.Marshal(t.StablePoints)
	if err != nil {
		return fmt.Errorf("store: marshal stable points: %w", err)
	}

	mapW, mapH := 0, 0
	var gradientBlob, normalBlob, depthBlob []byte
	if t.DepthMap != nil {
		mapW, mapH = t.DepthMap.Width, t.DepthMap.Height
		depthBlob = encodeUint16s(t.DepthMap.Pix)
	}
	if t.GradientMap != nil {
		gradientBlob = t.GradientMap.Pix
	}
	if t.NormalMap != nil {
		normalBlob = t.NormalMap.Pix
	}

	_, err = s.Exec(`
		INSERT INTO templates (
			id, obj_id, file_name, diameter, resize_ratio,
			bb_min_x, bb_min_y, bb_max_x, bb_max_y, camera_json,
			min_depth, max_depth, obj_area, map_width, map_height,
			gradient_map, normal_map, depth_map,
			edge_points_json, stable_points_json,
			feature_gradients, feature_normals, feature_depths, feature_hue,
			feature_depth_median
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			obj_id=excluded.obj_id, file_name=excluded.file_name,
			diameter=excluded.diameter, resize_ratio=excluded.resize_ratio,
			bb_min_x=excluded.bb_min_x, bb_min_y=excluded.bb_min_y,
			bb_max_x=excluded.bb_max_x, bb_max_y=excluded.bb_max_y,
			camera_json=excluded.camera_json,
			min_depth=excluded.min_depth, max_depth=excluded.max_depth,
			obj_area=excluded.obj_area, map_width=excluded.map_width, map_height=excluded.map_height,
			gradient_map=excluded.gradient_map, normal_map=excluded.normal_map, depth_map=excluded.depth_map,
			edge_points_json=excluded.edge_points_json, stable_points_json=excluded.stable_points_json,
			feature_gradients=excluded.feature_gradients, feature_normals=excluded.feature_normals,
			feature_depths=excluded.feature_depths, feature_hue=excluded.feature_hue,
			feature_depth_median=excluded.feature_depth_median
	`,
		t.ID, t.ObjID, t.FileName, t.Diameter, t.ResizeRatio,
		t.ObjBB.Min.X, t.ObjBB.Min.Y, t.ObjBB.Max.X, t.ObjBB.Max.Y, string(cameraJSON),
		t.MinDepth, t.MaxDepth, t.ObjArea, mapW, mapH,
		gradientBlob, normalBlob, depthBlob,
		string(edgeJSON), string(stableJSON),
		t.Features.Gradients, t.Features.Normals, encodeUint16s(t.Features.Depths), t.Features.Hue,
		t.Features.DepthMedian,
	)
	if err != nil {
		return fmt.Errorf("store: save template %d: %w", t.ID, err)
	}
	return nil
}

// LoadTemplatesForObject returns every trained template for one object ID.
func (s *Store) LoadTemplatesForObject(objID uint32) ([]*model.Template, error) {
	rows, err := s.Query(`SELECT id FROM templates WHERE obj_id = ? ORDER BY id`, objID)
	if err != nil {
		return nil, fmt.Errorf("store: query templates for object %d: %w", objID, err)
	}
	defer rows.Close()

	var ids []uint32
	for rows.Next() {
		var id uint32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*model.Template, 0, len(ids))
	for _, id := range ids {
		t, err := s.LoadTemplate(id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// LoadAllTemplates returns every trained template in the store.
func (s *Store) LoadAllTemplates() ([]*model.Template, error) {
	rows, err := s.Query(`SELECT id FROM templates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: query all templates: %w", err)
	}
	defer rows.Close()

	var ids []uint32
	for rows.Next() {
		var id uint32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*model.Template, 0, len(ids))
	for _, id := range ids {
		t, err := s.LoadTemplate(id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// LoadTemplate loads a single template by ID.
func (s *Store) LoadTemplate(id uint32) (*model.Template, error) {
	row := s.QueryRow(`
		SELECT obj_id, file_name, diameter, resize_ratio,
			bb_min_x, bb_min_y, bb_max_x, bb_max_y, camera_json,
			min_depth, max_depth, obj_area, map_width, map_height,
			gradient_map, normal_map, depth_map,
			edge_points_json, stable_points_json,
			feature_gradients, feature_normals, feature_depths, feature_hue,
			feature_depth_median
		FROM templates WHERE id = ?
	`, id)

	var (
		objID                                uint32
		fileName, cameraJSON                 string
		diameter, resizeRatio                float64
		bbMinX, bbMinY, bbMaxX, bbMaxY        int
		minDepth, maxDepth                   uint16
		objArea                              float64
		mapW, mapH                           int
		gradientBlob, normalBlob, depthBlob  []byte
		edgeJSON, stableJSON                 string
		featGradients, featNormals, featHue  []byte
		featDepthsBlob                       []byte
		featDepthMedian                      float64
	)
	err := row.Scan(
		&objID, &fileName, &diameter, &resizeRatio,
		&bbMinX, &bbMinY, &bbMaxX, &bbMaxY, &cameraJSON,
		&minDepth, &maxDepth, &objArea, &mapW, &mapH,
		&gradientBlob, &normalBlob, &depthBlob,
		&edgeJSON, &stableJSON,
		&featGradients, &featNormals, &featDepthsBlob, &featHue,
		&featDepthMedian,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: template %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load template %d: %w", id, err)
	}

	t := &model.Template{
		ID:          id,
		ObjID:       objID,
		FileName:    fileName,
		Diameter:    diameter,
		ResizeRatio: resizeRatio,
		ObjBB:       image.Rect(bbMinX, bbMinY, bbMaxX, bbMaxY),
		MinDepth:    minDepth,
		MaxDepth:    maxDepth,
		ObjArea:     objArea,
		Features: model.MatchingFeatures{
			Gradients:   featGradients,
			Normals:     featNormals,
			Depths:      decodeUint16s(featDepthsBlob),
			Hue:         featHue,
			DepthMedian: featDepthMedian,
		},
	}
	if err := json.Unmarshal([]byte(cameraJSON), &t.Camera); err != nil {
		return nil, fmt.Errorf("store: unmarshal camera for template %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(edgeJSON), &t.EdgePoints); err != nil {
		return nil, fmt.Errorf("store: unmarshal edge points for template %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(stableJSON), &t.StablePoints); err != nil {
		return nil, fmt.Errorf("store: unmarshal stable points for template %d: %w", id, err)
	}
	if mapW > 0 && mapH > 0 {
		t.DepthMap = &raster.DepthMap{Pix: decodeUint16s(depthBlob), Width: mapW, Height: mapH}
		t.GradientMap = &raster.FeatureMap{Pix: gradientBlob, Width: mapW, Height: mapH}
		t.NormalMap = &raster.FeatureMap{Pix: normalBlob, Width: mapW, Height: mapH}
	}
	return t, nil
}

// DeleteTemplatesForObject removes every template trained for one object
// ID, along with any hash-bucket entries referencing them (via the
// templates->hash_buckets foreign key's ON DELETE CASCADE).
func (s *Store) DeleteTemplatesForObject(objID uint32) error {
	if _, err := s.Exec(`DELETE FROM templates WHERE obj_id = ?`, objID); err != nil {
		return fmt.Errorf("store: delete templates for object %d: %w", objID, err)
	}
	return nil
}
