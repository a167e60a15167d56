package impact

import (
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/isotrack/internal/models"
	"gorm.io/gorm"
)

// ValidTransitions maps each impact status to its valid next statuses.
var ValidTransitions = map[string][]string{
	models.ImpactPending:  {models.ImpactApproved, models.ImpactRejected},
	models.ImpactApproved: {},
	models.ImpactRejected: {},
}

// Approve moves a PENDING impact to APPROVED.
func Approve(db *gorm.DB, id uint, reviewer string) (*models.Impact, error) {
	return transition(db, id, models.ImpactApproved, map[string]interface{}{
		"reviewed_by": reviewer,
	})
}

// Reject moves a PENDING impact to REJECTED and records the reason, which
// must not be blank.
func Reject(db *gorm.DB, id uint, reason, reviewer string) (*models.Impact, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("impact: reject %d: %w", id, ErrMissingReason)
	}
	return transition(db, id, models.ImpactRejected, map[string]interface{}{
		"rejection_reason": reason,
		"reviewed_by":      reviewer,
	})
}

// transition applies the status change only if the row is still PENDING, so
// two reviewers racing on one impact cannot both succeed.
func transition(db *gorm.DB, id uint, to string, updates map[string]interface{}) (*models.Impact, error) {
	updates["status"] = to
	updates["reviewed_at"] = time.Now()

	result := db.Model(&models.Impact{}).
		Where("id = ? AND status = ?", id, models.ImpactPending).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("impact: set %d %s: %w", id, to, result.Error)
	}
	if result.RowsAffected == 0 {
		imp, err := Get(db, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("impact: %d is %s, valid transitions: %v: %w",
			id, imp.Status, ValidTransitions[imp.Status], ErrInvalidState)
	}
	return Get(db, id)
}
