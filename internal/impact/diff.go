// Package impact computes, stores and reviews the differences between a
// revision's spools and joints and those of the revision it supersedes.
package impact

import (
	"slices"
	"strconv"

	"github.com/zulandar/isotrack/internal/models"
)

// Field is one comparable attribute of an entity, rendered as text.
type Field struct {
	Name  string
	Value string
}

// Entity is anything with a business key and a fixed list of comparable
// fields. Two entities with the same key are equal when every field value
// matches.
type Entity interface {
	Key() string
	Fields() []Field
}

// Snapshot is the spool and joint data of one revision.
type Snapshot struct {
	Spools []models.Spool
	Joints []models.Joint
}

// SnapshotOf takes the spools and joints of a preloaded revision. A nil
// revision yields an empty snapshot.
func SnapshotOf(rev *models.Revision) Snapshot {
	if rev == nil {
		return Snapshot{}
	}
	return Snapshot{Spools: rev.Spools, Joints: rev.Joints}
}

type spoolEntity models.Spool

func (s spoolEntity) Key() string { return string(s.Name) }

func (s spoolEntity) Fields() []Field {
	return []Field{
		{Name: "diameter", Value: formatFloat(s.Diameter)},
		{Name: "material", Value: s.Material},
		{Name: "schedule", Value: s.Schedule},
		{Name: "piping_class", Value: s.PipingClass},
		{Name: "weight", Value: formatFloat(s.Weight)},
	}
}

type jointEntity models.Joint

func (j jointEntity) Key() string { return string(j.Tag) }

func (j jointEntity) Fields() []Field {
	return []Field{
		{Name: "category", Value: j.Category},
		{Name: "diameter", Value: formatFloat(j.Diameter)},
		{Name: "schedule", Value: j.Schedule},
		{Name: "material", Value: j.Material},
		{Name: "thickness", Value: formatFloat(j.Thickness)},
		{Name: "rating", Value: j.Rating},
	}
}

// SpoolEntities adapts spools for comparison.
func SpoolEntities(spools []models.Spool) []Entity {
	out := make([]Entity, len(spools))
	for i := range spools {
		out[i] = spoolEntity(spools[i])
	}
	return out
}

// JointEntities adapts joints for comparison.
func JointEntities(joints []models.Joint) []Entity {
	out := make([]Entity, len(joints))
	for i := range joints {
		out[i] = jointEntity(joints[i])
	}
	return out
}

// Diff compares two snapshots and returns spool impacts followed by joint
// impacts, numbered in order. It performs no I/O.
func Diff(prev, next Snapshot) []models.Impact {
	impacts := Compare(models.EntitySpool, SpoolEntities(prev.Spools), SpoolEntities(next.Spools))
	impacts = append(impacts, Compare(models.EntityJoint, JointEntities(prev.Joints), JointEntities(next.Joints))...)
	for i := range impacts {
		impacts[i].Sequence = i
	}
	return impacts
}

// Compare classifies every key of prev and next as ADDED, REMOVED or
// MODIFIED. Unchanged keys produce nothing. The result lists ADDED, then
// REMOVED, then MODIFIED impacts, each group in ascending key order, all
// PENDING. When a key repeats on one side the first occurrence is used.
func Compare(entityType string, prev, next []Entity) []models.Impact {
	prevByKey := index(prev)
	nextByKey := index(next)

	var added, removed, common []string
	for key := range nextByKey {
		if _, ok := prevByKey[key]; ok {
			common = append(common, key)
		} else {
			added = append(added, key)
		}
	}
	for key := range prevByKey {
		if _, ok := nextByKey[key]; !ok {
			removed = append(removed, key)
		}
	}
	slices.Sort(added)
	slices.Sort(removed)
	slices.Sort(common)

	var out []models.Impact
	for _, key := range added {
		out = append(out, newImpact(entityType, key, models.ChangeAdded))
	}
	for _, key := range removed {
		out = append(out, newImpact(entityType, key, models.ChangeRemoved))
	}
	for _, key := range common {
		changes := changedFields(prevByKey[key], nextByKey[key])
		if len(changes) == 0 {
			continue
		}
		imp := newImpact(entityType, key, models.ChangeModified)
		// A []FieldChange always marshals.
		_ = imp.SetFieldChanges(changes)
		out = append(out, imp)
	}
	return out
}

func index(entities []Entity) map[string]Entity {
	m := make(map[string]Entity, len(entities))
	for _, e := range entities {
		if _, seen := m[e.Key()]; !seen {
			m[e.Key()] = e
		}
	}
	return m
}

// changedFields lists fields whose values differ, in the order declared by
// the entity. Fields are matched by name.
func changedFields(before, after Entity) []models.FieldChange {
	afterVals := make(map[string]string)
	for _, f := range after.Fields() {
		afterVals[f.Name] = f.Value
	}
	var changes []models.FieldChange
	for _, f := range before.Fields() {
		if v := afterVals[f.Name]; v != f.Value {
			changes = append(changes, models.FieldChange{Field: f.Name, Before: f.Value, After: v})
		}
	}
	return changes
}

func newImpact(entityType, key, kind string) models.Impact {
	return models.Impact{
		EntityType: entityType,
		EntityKey:  key,
		ChangeKind: kind,
		Status:     models.ImpactPending,
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
