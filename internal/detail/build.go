package detail

import (
	"fmt"
	"strings"

	"github.com/zulandar/isotrack/internal/models"
	"github.com/zulandar/isotrack/internal/revision"
	"github.com/zulandar/isotrack/internal/rows"
)

// BuildSpools derives the unique spool set of a revision from its material
// take-off. The first row naming a spool supplies its descriptive fields;
// rows without a spool number contribute no spool.
func BuildSpools(mto []rows.MTORow) []models.Spool {
	seen := make(map[models.SpoolName]bool)
	var spools []models.Spool
	for _, m := range mto {
		name := models.SpoolName(strings.TrimSpace(m.SpoolNumber))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		spools = append(spools, models.Spool{
			Name:        name,
			Sheet:       m.Sheet,
			PipingClass: m.PipingClass,
			FabLocation: m.Fab,
			Diameter:    m.NPS,
			Material:    m.Material,
			Schedule:    m.Schedule,
			Weight:      m.Weight,
		})
	}
	return spools
}

// BuildJoints derives the joint list from welds and bolted joints. Each joint
// keeps the name of its spool for resolution after the spools are stored.
// Rows without a tag are skipped with a warning; a tag used twice is a
// validation error.
func BuildJoints(welds []rows.WeldRow, bolts []rows.BoltRow) ([]models.Joint, []string, error) {
	var (
		joints   []models.Joint
		warnings []string
	)
	seen := make(map[models.JointTag]bool)
	add := func(j models.Joint, kind string, n int) error {
		if j.Tag == "" {
			warnings = append(warnings, fmt.Sprintf("%s row %d: missing joint tag, skipped", kind, n))
			return nil
		}
		if seen[j.Tag] {
			return fmt.Errorf("%w: duplicate joint tag %q", revision.ErrValidation, j.Tag)
		}
		seen[j.Tag] = true
		joints = append(joints, j)
		return nil
	}

	for i, w := range welds {
		err := add(models.Joint{
			Tag:       models.JointTag(strings.TrimSpace(w.WeldNumber)),
			SpoolName: models.SpoolName(strings.TrimSpace(w.SpoolNumber)),
			Category:  models.JointWeld,
			Class:     weldClass(w.Destination),
			WeldType:  w.WeldType,
			Diameter:  w.NPS,
			Schedule:  w.Schedule,
			Thickness: w.Thickness,
			Material:  w.Material,
			Sheet:     w.Sheet,
		}, "weld", i+1)
		if err != nil {
			return nil, warnings, err
		}
	}
	for i, b := range bolts {
		err := add(models.Joint{
			Tag:       models.JointTag(strings.TrimSpace(b.FlangedJointNumber)),
			SpoolName: models.SpoolName(strings.TrimSpace(b.SpoolNumber)),
			Category:  models.JointBolt,
			Class:     models.JointField,
			Diameter:  b.NPS,
			Rating:    b.Rating,
			BoltSize:  b.BoltSize,
			Material:  b.Material,
			Sheet:     b.Sheet,
		}, "bolt", i+1)
		if err != nil {
			return nil, warnings, err
		}
	}
	return joints, warnings, nil
}

// weldClass maps a weld destination to its fabrication class.
func weldClass(destination string) string {
	d := strings.TrimSpace(destination)
	if strings.EqualFold(d, "CAMPO") || strings.EqualFold(d, models.JointField) {
		return models.JointField
	}
	return models.JointShop
}

// BuildMaterials converts take-off rows into material lines. The item code
// stands in for a missing description.
func BuildMaterials(mto []rows.MTORow) []models.Material {
	materials := make([]models.Material, 0, len(mto))
	for _, m := range mto {
		desc := m.Description
		if desc == "" {
			desc = m.ItemCode
		}
		materials = append(materials, models.Material{
			SpoolName:   models.SpoolName(strings.TrimSpace(m.SpoolNumber)),
			ItemCode:    m.ItemCode,
			Description: desc,
			Quantity:    m.Qty,
			Unit:        m.QtyUnit,
			PipingClass: m.PipingClass,
		})
	}
	return materials
}

// SpoolIndex maps stored spool names to their ids.
type SpoolIndex map[models.SpoolName]uint

// IndexSpools indexes spools that already carry database ids.
func IndexSpools(spools []models.Spool) SpoolIndex {
	ix := make(SpoolIndex, len(spools))
	for _, s := range spools {
		ix[s.Name] = s.ID
	}
	return ix
}

// Resolve links a spool name to a stored spool. Blank and unknown names
// resolve to an unresolved link.
func (ix SpoolIndex) Resolve(name models.SpoolName) models.SpoolLink {
	if name == "" {
		return models.UnresolvedSpool()
	}
	id, ok := ix[name]
	if !ok {
		return models.UnresolvedSpool()
	}
	return models.ResolvedSpool(id)
}
