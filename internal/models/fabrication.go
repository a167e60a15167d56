package models

import "time"

// Joint categories.
const (
	JointWeld = "WELD"
	JointBolt = "BOLT"
)

// Joint fabrication classes.
const (
	JointShop  = "SHOP"
	JointField = "FIELD"
)

// SpoolName is the business key of a spool within a revision.
type SpoolName string

// JointTag is the business key of a joint within a revision.
type JointTag string

// SpoolLink is the outcome of resolving a spool name to a stored spool.
// The zero value is unresolved.
type SpoolLink struct {
	id       uint
	resolved bool
}

// ResolvedSpool returns a link to the stored spool with the given id.
func ResolvedSpool(id uint) SpoolLink {
	return SpoolLink{id: id, resolved: true}
}

// UnresolvedSpool returns a link for a name that matched no stored spool.
func UnresolvedSpool() SpoolLink {
	return SpoolLink{}
}

// Resolved returns the spool id and whether the link points at a spool.
func (l SpoolLink) Resolved() (uint, bool) {
	return l.id, l.resolved
}

// ForeignKey converts the link to the nullable column value.
func (l SpoolLink) ForeignKey() *uint {
	if !l.resolved {
		return nil
	}
	id := l.id
	return &id
}

// Spool is a prefabricated pipe section belonging to one revision.
type Spool struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RevisionID       uint      `gorm:"not null;uniqueIndex:idx_spool_revision_name" json:"revision_id"`
	Name             SpoolName `gorm:"size:128;not null;uniqueIndex:idx_spool_revision_name" json:"name"`
	Diameter         *float64  `json:"diameter,omitempty"`
	Material         string    `gorm:"size:128" json:"material,omitempty"`
	Schedule         string    `gorm:"size:32" json:"schedule,omitempty"`
	Weight           *float64  `json:"weight,omitempty"`
	Sheet            string    `gorm:"size:16" json:"sheet,omitempty"`
	PipingClass      string    `gorm:"size:64" json:"piping_class,omitempty"`
	FabLocation      string    `gorm:"size:64" json:"fab_location,omitempty"`
	RequiresPWHT     bool      `gorm:"default:false" json:"requires_pwht"`
	RequiresPainting bool      `gorm:"default:false" json:"requires_painting"`
	CreatedAt        time.Time `json:"created_at"`
}

// Joint is a weld or bolted connection belonging to one revision.
type Joint struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RevisionID uint      `gorm:"not null;uniqueIndex:idx_joint_revision_tag" json:"revision_id"`
	SpoolID    *uint     `gorm:"index" json:"spool_id,omitempty"`
	SpoolName  SpoolName `gorm:"size:128" json:"spool_name,omitempty"`
	Tag        JointTag  `gorm:"size:128;not null;uniqueIndex:idx_joint_revision_tag" json:"tag"`
	Category   string    `gorm:"size:8;not null" json:"category"`
	Class      string    `gorm:"size:8" json:"class"`
	WeldType   string    `gorm:"size:16" json:"weld_type,omitempty"`
	Diameter   *float64  `json:"diameter,omitempty"`
	Schedule   string    `gorm:"size:32" json:"schedule,omitempty"`
	Material   string    `gorm:"size:128" json:"material,omitempty"`
	Thickness  *float64  `json:"thickness,omitempty"`
	Rating     string    `gorm:"size:32" json:"rating,omitempty"`
	BoltSize   string    `gorm:"size:32" json:"bolt_size,omitempty"`
	Sheet      string    `gorm:"size:16" json:"sheet,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	Spool *Spool `gorm:"foreignKey:SpoolID;constraint:OnDelete:SET NULL" json:"-"`
}

// Material is one line of a revision's material take-off.
type Material struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RevisionID  uint      `gorm:"not null;index" json:"revision_id"`
	SpoolID     *uint     `gorm:"index" json:"spool_id,omitempty"`
	SpoolName   SpoolName `gorm:"size:128" json:"spool_name,omitempty"`
	ItemCode    string    `gorm:"size:128" json:"item_code,omitempty"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Quantity    float64   `gorm:"default:0" json:"quantity"`
	Unit        string    `gorm:"size:16" json:"unit,omitempty"`
	PipingClass string    `gorm:"size:64" json:"piping_class,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	Spool *Spool `gorm:"foreignKey:SpoolID;constraint:OnDelete:SET NULL" json:"-"`
}
