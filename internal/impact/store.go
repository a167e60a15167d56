package impact

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zulandar/isotrack/internal/models"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("impact not found")
	ErrInvalidState  = errors.New("impact is not pending")
	ErrMissingReason = errors.New("rejection reason is required")
)

// Save persists impacts as one batch against revisionID and returns the
// generated batch id. An empty list writes nothing and returns "".
func Save(db *gorm.DB, revisionID uint, previousRevisionID *uint, impacts []models.Impact) (string, error) {
	if len(impacts) == 0 {
		return "", nil
	}
	batchID := uuid.NewString()
	for i := range impacts {
		impacts[i].ID = 0
		impacts[i].RevisionID = revisionID
		impacts[i].PreviousRevisionID = previousRevisionID
		impacts[i].BatchID = batchID
		impacts[i].Status = models.ImpactPending
	}
	if err := db.CreateInBatches(impacts, 100).Error; err != nil {
		return "", fmt.Errorf("impact: save batch for revision %d: %w", revisionID, err)
	}
	return batchID, nil
}

// Get returns one impact by id.
func Get(db *gorm.DB, id uint) (*models.Impact, error) {
	var imp models.Impact
	err := db.First(&imp, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("impact: %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("impact: get %d: %w", id, err)
	}
	return &imp, nil
}

// ListByRevision returns the impacts recorded against a revision in
// detection order.
func ListByRevision(db *gorm.DB, revisionID uint) ([]models.Impact, error) {
	var impacts []models.Impact
	if err := db.Where("revision_id = ?", revisionID).
		Order("batch_id, sequence").Find(&impacts).Error; err != nil {
		return nil, fmt.Errorf("impact: list for revision %d: %w", revisionID, err)
	}
	return impacts, nil
}

// ListPending returns every PENDING impact of a project, oldest first.
func ListPending(db *gorm.DB, projectID string) ([]models.Impact, error) {
	var impacts []models.Impact
	if err := db.Joins("JOIN revisions ON revisions.id = impacts.revision_id").
		Joins("JOIN isometrics ON isometrics.id = revisions.isometric_id").
		Where("isometrics.project_id = ? AND impacts.status = ?", projectID, models.ImpactPending).
		Order("impacts.id").Find(&impacts).Error; err != nil {
		return nil, fmt.Errorf("impact: list pending for %s: %w", projectID, err)
	}
	return impacts, nil
}
