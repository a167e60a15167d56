package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Impact entity types.
const (
	EntitySpool = "SPOOL"
	EntityJoint = "JOINT"
)

// Impact change kinds.
const (
	ChangeAdded    = "ADDED"
	ChangeRemoved  = "REMOVED"
	ChangeModified = "MODIFIED"
)

// Impact review statuses.
const (
	ImpactPending  = "PENDING"
	ImpactApproved = "APPROVED"
	ImpactRejected = "REJECTED"
)

// FieldChange is one differing field of a MODIFIED impact.
type FieldChange struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Impact is a detected difference between a revision and its predecessor,
// awaiting human review.
type Impact struct {
	ID                 uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	RevisionID         uint           `gorm:"not null;index" json:"revision_id"`
	PreviousRevisionID *uint          `json:"previous_revision_id,omitempty"`
	BatchID            string         `gorm:"size:36;not null;index" json:"batch_id"`
	Sequence           int            `gorm:"not null;default:0" json:"sequence"`
	EntityType         string         `gorm:"size:8;not null" json:"entity_type"`
	EntityKey          string         `gorm:"size:128;not null" json:"entity_key"`
	ChangeKind         string         `gorm:"size:16;not null" json:"change_kind"`
	Changes            datatypes.JSON `json:"changes,omitempty"`
	Status             string         `gorm:"size:16;not null;default:PENDING;index" json:"status"`
	RejectionReason    string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	ReviewedBy         string         `gorm:"size:64" json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`

	Revision *Revision `gorm:"foreignKey:RevisionID" json:"-"`
}

// FieldChanges decodes the change payload. ADDED and REMOVED impacts
// carry none.
func (i *Impact) FieldChanges() ([]FieldChange, error) {
	if len(i.Changes) == 0 {
		return nil, nil
	}
	var out []FieldChange
	if err := json.Unmarshal(i.Changes, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetFieldChanges encodes the change payload.
func (i *Impact) SetFieldChanges(changes []FieldChange) error {
	if len(changes) == 0 {
		i.Changes = nil
		return nil
	}
	data, err := json.Marshal(changes)
	if err != nil {
		return err
	}
	i.Changes = datatypes.JSON(data)
	return nil
}
