package models

import "time"

// Revision statuses.
const (
	RevisionPending  = "PENDING"
	RevisionCurrent  = "CURRENT"
	RevisionObsolete = "OBSOLETE"
)

// DefaultSpoolingStatus is stored when an announcement row carries no spooling status.
const DefaultSpoolingStatus = "PENDIENTE"

// Isometric is a piping drawing identified by a business code within a project.
type Isometric struct {
	ID                uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID         string    `gorm:"size:64;not null;uniqueIndex:idx_isometric_project_code" json:"project_id"`
	Code              string    `gorm:"size:128;not null;uniqueIndex:idx_isometric_project_code" json:"code"`
	LineNumber        string    `gorm:"size:128" json:"line_number,omitempty"`
	Area              string    `gorm:"size:64" json:"area,omitempty"`
	SubArea           string    `gorm:"size:64" json:"sub_area,omitempty"`
	LineType          string    `gorm:"size:64" json:"line_type,omitempty"`
	CurrentRevisionID *uint     `gorm:"index" json:"current_revision_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Revisions []Revision `gorm:"foreignKey:IsometricID" json:"revisions,omitempty"`
}

// Revision is one client-issued version of an isometric.
type Revision struct {
	ID                  uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	IsometricID         uint       `gorm:"not null;uniqueIndex:idx_revision_isometric_code" json:"isometric_id"`
	Code                string     `gorm:"size:32;not null;uniqueIndex:idx_revision_isometric_code" json:"code"`
	Status              string     `gorm:"size:16;not null;default:PENDING;index" json:"status"`
	EmissionDate        time.Time  `json:"emission_date"`
	ClientFileCode      string     `gorm:"size:128" json:"client_file_code,omitempty"`
	ClientRevisionCode  string     `gorm:"size:32" json:"client_revision_code,omitempty"`
	TransmittalCode     string     `gorm:"size:64" json:"transmittal_code,omitempty"`
	TransmittalNumber   string     `gorm:"size:64" json:"transmittal_number,omitempty"`
	TransmittalDate     *time.Time `json:"transmittal_date,omitempty"`
	HasPDF              bool       `gorm:"default:false" json:"has_pdf"`
	HasIDF              bool       `gorm:"default:false" json:"has_idf"`
	SpoolingStatus      string     `gorm:"size:32;default:PENDIENTE" json:"spooling_status"`
	SpoolingDate        *time.Time `json:"spooling_date,omitempty"`
	SpoolingSentDate    *time.Time `json:"spooling_sent_date,omitempty"`
	TotalJointsCount    int        `gorm:"default:0" json:"total_joints_count"`
	ExecutedJointsCount int        `gorm:"default:0" json:"executed_joints_count"`
	PendingJointsCount  int        `gorm:"default:0" json:"pending_joints_count"`
	Comment             string     `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	Isometric *Isometric `gorm:"foreignKey:IsometricID" json:"isometric,omitempty"`
	Spools    []Spool    `gorm:"foreignKey:RevisionID;constraint:OnDelete:CASCADE" json:"spools,omitempty"`
	Joints    []Joint    `gorm:"foreignKey:RevisionID;constraint:OnDelete:CASCADE" json:"joints,omitempty"`
	Materials []Material `gorm:"foreignKey:RevisionID;constraint:OnDelete:CASCADE" json:"materials,omitempty"`
}

// HasDetails reports whether fabrication data is loaded on the revision.
// Only meaningful after Spools and Joints have been preloaded.
func (r *Revision) HasDetails() bool {
	return len(r.Spools) > 0 || len(r.Joints) > 0
}
