// Package revision is the durable store for isometrics and their revisions.
// It owns the rule that decides which revision of an isometric is CURRENT.
package revision

import (
	"errors"
	"fmt"

	"github.com/zulandar/isotrack/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FindIsometric looks up an isometric by project and code.
func FindIsometric(db *gorm.DB, projectID, code string) (*models.Isometric, error) {
	var iso models.Isometric
	err := db.Where("project_id = ? AND code = ?", projectID, code).First(&iso).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("revision: isometric %s/%s: %w", projectID, code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("revision: find isometric %s/%s: %w", projectID, code, err)
	}
	return &iso, nil
}

// UpsertIsometric returns the isometric identified by in.ProjectID and
// in.Code, creating it when absent. An existing isometric has its descriptive
// metadata replaced by the non-empty fields of in. The bool result reports
// whether a row was created.
func UpsertIsometric(db *gorm.DB, in models.Isometric) (*models.Isometric, bool, error) {
	if in.ProjectID == "" || in.Code == "" {
		return nil, false, fmt.Errorf("revision: upsert isometric: project and code are required: %w", ErrValidation)
	}

	existing, err := FindIsometric(db, in.ProjectID, in.Code)
	if errors.Is(err, ErrNotFound) {
		iso := models.Isometric{
			ProjectID:  in.ProjectID,
			Code:       in.Code,
			LineNumber: in.LineNumber,
			Area:       in.Area,
			SubArea:    in.SubArea,
			LineType:   in.LineType,
		}
		if err := db.Create(&iso).Error; err != nil {
			return nil, false, fmt.Errorf("revision: create isometric %s: %w", in.Code, err)
		}
		return &iso, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	updates := map[string]interface{}{}
	if in.LineNumber != "" {
		updates["line_number"] = in.LineNumber
		existing.LineNumber = in.LineNumber
	}
	if in.Area != "" {
		updates["area"] = in.Area
		existing.Area = in.Area
	}
	if in.SubArea != "" {
		updates["sub_area"] = in.SubArea
		existing.SubArea = in.SubArea
	}
	if in.LineType != "" {
		updates["line_type"] = in.LineType
		existing.LineType = in.LineType
	}
	if len(updates) > 0 {
		if err := db.Model(&models.Isometric{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return nil, false, fmt.Errorf("revision: update isometric %s: %w", in.Code, err)
		}
	}
	return existing, false, nil
}

// GetIsometric loads an isometric with its revisions ordered by code.
func GetIsometric(db *gorm.DB, id uint) (*models.Isometric, error) {
	var iso models.Isometric
	err := db.Preload("Revisions").First(&iso, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("revision: isometric %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("revision: get isometric %d: %w", id, err)
	}
	SortByCode(iso.Revisions)
	return &iso, nil
}

// ListIsometrics returns every isometric of a project ordered by code, with
// revisions preloaded.
func ListIsometrics(db *gorm.DB, projectID string) ([]models.Isometric, error) {
	var isos []models.Isometric
	if err := db.Preload("Revisions").Where("project_id = ?", projectID).Order("code").Find(&isos).Error; err != nil {
		return nil, fmt.Errorf("revision: list isometrics for %s: %w", projectID, err)
	}
	for i := range isos {
		SortByCode(isos[i].Revisions)
	}
	return isos, nil
}

// FindRevision looks up a revision of an isometric by code.
func FindRevision(db *gorm.DB, isometricID uint, code string) (*models.Revision, error) {
	var rev models.Revision
	err := db.Where("isometric_id = ? AND code = ?", isometricID, NormalizeCode(code)).First(&rev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("revision: revision %q of isometric %d: %w", code, isometricID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("revision: find revision %q: %w", code, err)
	}
	return &rev, nil
}

// CreateRevision inserts rev as a new PENDING revision. An existing
// (isometric, code) pair yields ErrDuplicateRevision and leaves the stored
// revision untouched.
func CreateRevision(db *gorm.DB, rev *models.Revision) error {
	rev.Code = NormalizeCode(rev.Code)
	if rev.IsometricID == 0 || rev.Code == "" {
		return fmt.Errorf("revision: create revision: isometric and code are required: %w", ErrValidation)
	}

	var count int64
	if err := db.Model(&models.Revision{}).
		Where("isometric_id = ? AND code = ?", rev.IsometricID, rev.Code).
		Count(&count).Error; err != nil {
		return fmt.Errorf("revision: check revision %q: %w", rev.Code, err)
	}
	if count > 0 {
		return fmt.Errorf("revision: revision %q: %w", rev.Code, ErrDuplicateRevision)
	}

	rev.ID = 0
	rev.Status = models.RevisionPending
	if rev.SpoolingStatus == "" {
		rev.SpoolingStatus = models.DefaultSpoolingStatus
	}
	if err := db.Create(rev).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("revision: revision %q: %w", rev.Code, ErrDuplicateRevision)
		}
		return fmt.Errorf("revision: create revision %q: %w", rev.Code, err)
	}
	return nil
}

// ListRevisions returns all revisions of an isometric ordered by code.
func ListRevisions(db *gorm.DB, isometricID uint) ([]models.Revision, error) {
	var revs []models.Revision
	if err := db.Where("isometric_id = ?", isometricID).Find(&revs).Error; err != nil {
		return nil, fmt.Errorf("revision: list revisions for isometric %d: %w", isometricID, err)
	}
	SortByCode(revs)
	return revs, nil
}

// CurrentRevision returns the CURRENT revision of an isometric.
func CurrentRevision(db *gorm.DB, isometricID uint) (*models.Revision, error) {
	var rev models.Revision
	err := db.Where("isometric_id = ? AND status = ?", isometricID, models.RevisionCurrent).First(&rev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("revision: isometric %d: %w", isometricID, ErrNoCurrentRevision)
	}
	if err != nil {
		return nil, fmt.Errorf("revision: current revision of isometric %d: %w", isometricID, err)
	}
	return &rev, nil
}

// GetRevisionDetails loads a revision with its isometric, spools, joints and
// materials.
func GetRevisionDetails(db *gorm.DB, id uint) (*models.Revision, error) {
	var rev models.Revision
	err := db.Preload("Isometric").
		Preload("Spools", func(q *gorm.DB) *gorm.DB { return q.Order("name") }).
		Preload("Joints", func(q *gorm.DB) *gorm.DB { return q.Order("tag") }).
		Preload("Materials", func(q *gorm.DB) *gorm.DB { return q.Order("id") }).
		First(&rev, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("revision: revision %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("revision: get revision %d: %w", id, err)
	}
	return &rev, nil
}

// Baseline returns the highest-coded revision of the isometric, other than
// excludeID, that carries spool or joint data, with that data preloaded.
// It returns (nil, nil) when no such revision exists.
func Baseline(db *gorm.DB, isometricID, excludeID uint) (*models.Revision, error) {
	var revs []models.Revision
	err := db.Where("isometric_id = ? AND id <> ?", isometricID, excludeID).
		Where("(EXISTS (SELECT 1 FROM spools WHERE spools.revision_id = revisions.id) OR EXISTS (SELECT 1 FROM joints WHERE joints.revision_id = revisions.id))").
		Find(&revs).Error
	if err != nil {
		return nil, fmt.Errorf("revision: baseline for isometric %d: %w", isometricID, err)
	}
	if len(revs) == 0 {
		return nil, nil
	}
	SortByCode(revs)
	return GetRevisionDetails(db, revs[len(revs)-1].ID)
}

// RecomputeCurrent marks the highest-coded non-obsolete revision of the
// isometric CURRENT, every other revision OBSOLETE, and points the isometric
// at the winner. Obsolete revisions are never promoted again. Running it
// twice on the same revision set is a no-op the second time. It returns the
// CURRENT revision, or nil when the isometric has none.
func RecomputeCurrent(db *gorm.DB, isometricID uint) (*models.Revision, error) {
	revs, err := ListRevisions(db, isometricID)
	if err != nil {
		return nil, err
	}

	var winner *models.Revision
	for i := range revs {
		if revs[i].Status == models.RevisionObsolete {
			continue
		}
		if winner == nil || CompareCodes(revs[i].Code, winner.Code) > 0 {
			winner = &revs[i]
		}
	}

	for i := range revs {
		want := models.RevisionObsolete
		if winner != nil && revs[i].ID == winner.ID {
			want = models.RevisionCurrent
		}
		if revs[i].Status == want {
			continue
		}
		if err := db.Model(&models.Revision{}).Where("id = ?", revs[i].ID).
			Update("status", want).Error; err != nil {
			return nil, fmt.Errorf("revision: set revision %d %s: %w", revs[i].ID, want, err)
		}
		revs[i].Status = want
	}

	var pointer interface{}
	if winner != nil {
		pointer = winner.ID
	}
	if err := db.Model(&models.Isometric{}).Where("id = ?", isometricID).
		Update("current_revision_id", pointer).Error; err != nil {
		return nil, fmt.Errorf("revision: point isometric %d at current revision: %w", isometricID, err)
	}
	if winner == nil {
		return nil, nil
	}
	out := *winner
	return &out, nil
}

// Supersede marks every CURRENT revision of the isometric other than keepID
// as OBSOLETE and returns how many rows changed.
func Supersede(db *gorm.DB, isometricID, keepID uint) (int64, error) {
	result := db.Model(&models.Revision{}).
		Where("isometric_id = ? AND id <> ? AND status = ?", isometricID, keepID, models.RevisionCurrent).
		Update("status", models.RevisionObsolete)
	if result.Error != nil {
		return 0, fmt.Errorf("revision: supersede revisions of isometric %d: %w", isometricID, result.Error)
	}
	return result.RowsAffected, nil
}

// LockIsometric re-reads the isometric row with SELECT ... FOR UPDATE. It must
// run inside a transaction; dialects without row locks ignore the clause.
func LockIsometric(db *gorm.DB, id uint) (*models.Isometric, error) {
	var iso models.Isometric
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&iso, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("revision: lock isometric %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("revision: lock isometric %d: %w", id, err)
	}
	return &iso, nil
}

// CountCurrent returns how many revisions of the isometric are CURRENT.
func CountCurrent(db *gorm.DB, isometricID uint) (int64, error) {
	var n int64
	if err := db.Model(&models.Revision{}).
		Where("isometric_id = ? AND status = ?", isometricID, models.RevisionCurrent).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("revision: count current revisions of isometric %d: %w", isometricID, err)
	}
	return n, nil
}
