package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestIsometric_Fields(t *testing.T) {
	typ := reflect.TypeOf(Isometric{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ProjectID", "uniqueIndex:idx_isometric_project_code")
	assertGormTag(t, typ, "Code", "uniqueIndex:idx_isometric_project_code")
	assertGormTag(t, typ, "Code", "not null")
	assertGormTag(t, typ, "Revisions", "foreignKey:IsometricID")

	assertFieldType(t, typ, "CurrentRevisionID", "*uint")
	assertFieldType(t, typ, "Revisions", "[]models.Revision")
}

func TestRevision_Fields(t *testing.T) {
	typ := reflect.TypeOf(Revision{})

	// Composite uniqueness on (isometric, code)
	assertGormTag(t, typ, "IsometricID", "uniqueIndex:idx_revision_isometric_code")
	assertGormTag(t, typ, "Code", "uniqueIndex:idx_revision_isometric_code")
	assertGormTag(t, typ, "Status", "default:PENDING")
	assertGormTag(t, typ, "Status", "index")
	assertGormTag(t, typ, "SpoolingStatus", "default:PENDIENTE")
	assertGormTag(t, typ, "Comment", "type:text")

	assertGormTag(t, typ, "Spools", "foreignKey:RevisionID")
	assertGormTag(t, typ, "Spools", "OnDelete:CASCADE")
	assertGormTag(t, typ, "Joints", "OnDelete:CASCADE")
	assertGormTag(t, typ, "Materials", "OnDelete:CASCADE")

	assertFieldType(t, typ, "TransmittalDate", "*time.Time")
	assertFieldType(t, typ, "EmissionDate", "time.Time")
	assertFieldType(t, typ, "TotalJointsCount", "int")
}

func TestSpool_Fields(t *testing.T) {
	typ := reflect.TypeOf(Spool{})

	assertGormTag(t, typ, "RevisionID", "uniqueIndex:idx_spool_revision_name")
	assertGormTag(t, typ, "Name", "uniqueIndex:idx_spool_revision_name")

	assertFieldType(t, typ, "Name", "models.SpoolName")
	assertFieldType(t, typ, "Diameter", "*float64")
	assertFieldType(t, typ, "Weight", "*float64")
}

func TestJoint_Fields(t *testing.T) {
	typ := reflect.TypeOf(Joint{})

	assertGormTag(t, typ, "RevisionID", "uniqueIndex:idx_joint_revision_tag")
	assertGormTag(t, typ, "Tag", "uniqueIndex:idx_joint_revision_tag")
	assertGormTag(t, typ, "Category", "not null")
	assertGormTag(t, typ, "Spool", "foreignKey:SpoolID")

	assertFieldType(t, typ, "Tag", "models.JointTag")
	assertFieldType(t, typ, "SpoolID", "*uint")
	assertFieldType(t, typ, "SpoolName", "models.SpoolName")
}

func TestMaterial_Fields(t *testing.T) {
	typ := reflect.TypeOf(Material{})

	assertGormTag(t, typ, "RevisionID", "index")
	assertFieldType(t, typ, "SpoolID", "*uint")
	assertFieldType(t, typ, "Quantity", "float64")
}

func TestImpact_Fields(t *testing.T) {
	typ := reflect.TypeOf(Impact{})

	assertGormTag(t, typ, "RevisionID", "index")
	assertGormTag(t, typ, "BatchID", "size:36")
	assertGormTag(t, typ, "Status", "default:PENDING")
	assertGormTag(t, typ, "RejectionReason", "type:text")

	assertFieldType(t, typ, "Changes", "datatypes.JSON")
	assertFieldType(t, typ, "ReviewedAt", "*time.Time")
	assertFieldType(t, typ, "PreviousRevisionID", "*uint")
}

func TestSpoolLink(t *testing.T) {
	var zero SpoolLink
	if _, ok := zero.Resolved(); ok {
		t.Error("zero SpoolLink should be unresolved")
	}
	if zero.ForeignKey() != nil {
		t.Error("unresolved link should map to a nil foreign key")
	}

	link := ResolvedSpool(42)
	id, ok := link.Resolved()
	if !ok || id != 42 {
		t.Errorf("Resolved() = (%d, %v), want (42, true)", id, ok)
	}
	fk := link.ForeignKey()
	if fk == nil || *fk != 42 {
		t.Errorf("ForeignKey() = %v, want 42", fk)
	}

	if _, ok := UnresolvedSpool().Resolved(); ok {
		t.Error("UnresolvedSpool() should be unresolved")
	}
}

func TestImpact_FieldChanges(t *testing.T) {
	var imp Impact
	got, err := imp.FieldChanges()
	if err != nil {
		t.Fatalf("FieldChanges on empty payload: %v", err)
	}
	if got != nil {
		t.Errorf("FieldChanges() = %v, want nil", got)
	}

	want := []FieldChange{{Field: "diameter", Before: "6", After: "8"}}
	if err := imp.SetFieldChanges(want); err != nil {
		t.Fatalf("SetFieldChanges: %v", err)
	}
	got, err = imp.FieldChanges()
	if err != nil {
		t.Fatalf("FieldChanges: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FieldChanges() = %+v, want %+v", got, want)
	}

	if err := imp.SetFieldChanges(nil); err != nil {
		t.Fatalf("SetFieldChanges(nil): %v", err)
	}
	if imp.Changes != nil {
		t.Errorf("Changes = %s, want nil", imp.Changes)
	}
}

func TestRevision_HasDetails(t *testing.T) {
	r := &Revision{}
	if r.HasDetails() {
		t.Error("empty revision should have no details")
	}
	r.Joints = []Joint{{Tag: "W1"}}
	if !r.HasDetails() {
		t.Error("revision with joints should report details")
	}
}
