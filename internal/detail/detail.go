// Package detail imports the fabrication detail of an isometric's current
// revision: spools, welds, bolted joints and the material take-off. When an
// earlier revision already carried detail data, the differences are recorded
// as impacts for review before that revision is superseded.
package detail

import (
	"context"
	"errors"
	"fmt"

	"github.com/zulandar/isotrack/internal/impact"
	"github.com/zulandar/isotrack/internal/isolock"
	"github.com/zulandar/isotrack/internal/logger"
	"github.com/zulandar/isotrack/internal/models"
	"github.com/zulandar/isotrack/internal/notify"
	"github.com/zulandar/isotrack/internal/revision"
	"github.com/zulandar/isotrack/internal/rows"
	"gorm.io/gorm"
)

// insertBatchSize caps rows per INSERT statement.
const insertBatchSize = 200

// Request names the revision a detail file belongs to, plus its rows.
type Request struct {
	ProjectID     string
	IsometricCode string
	RevisionCode  string
	Detail        rows.Detail
}

// Result reports the outcome of one import. It is always populated, also
// when Import returns an error.
type Result struct {
	Success         bool     `json:"success"`
	RevisionID      uint     `json:"revisionId,omitempty"`
	ImpactsDetected bool     `json:"impactsDetected"`
	ImpactCount     int      `json:"impactCount"`
	BatchID         string   `json:"batchId,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Message         string   `json:"message,omitempty"`
}

// Processor imports detail files.
type Processor struct {
	db       *gorm.DB
	locker   isolock.Locker
	notifier *notify.Notifier
	log      *logger.Logger
}

// NewProcessor creates a Processor. A nil locker serializes imports within
// this process only; a nil notifier disables impact notifications.
func NewProcessor(db *gorm.DB, locker isolock.Locker, notifier *notify.Notifier, log *logger.Logger) *Processor {
	if locker == nil {
		locker = isolock.NewLocal()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{db: db, locker: locker, notifier: notifier, log: log}
}

// staged is the derived data of a request, built before any lock is taken.
type staged struct {
	spools    []models.Spool
	joints    []models.Joint
	materials []models.Material
}

// Import attaches the request's detail rows to the isometric's CURRENT
// revision. Nothing is written unless every step succeeds.
func (p *Processor) Import(ctx context.Context, req Request) (*Result, error) {
	res := &Result{}
	fail := func(err error) (*Result, error) {
		res.Success = false
		res.Message = err.Error()
		return res, err
	}

	req.IsometricCode = revision.NormalizeCode(req.IsometricCode)
	req.RevisionCode = revision.NormalizeCode(req.RevisionCode)
	switch {
	case req.ProjectID == "":
		return fail(fmt.Errorf("detail: %w: project is required", revision.ErrValidation))
	case req.IsometricCode == "":
		return fail(fmt.Errorf("detail: %w: isometric code is required", revision.ErrValidation))
	case req.RevisionCode == "":
		return fail(fmt.Errorf("detail: %w: revision code is required", revision.ErrValidation))
	}

	joints, warnings, err := BuildJoints(req.Detail.Welds, req.Detail.Bolts)
	res.Warnings = warnings
	if err != nil {
		return fail(fmt.Errorf("detail: isometric %s: %w", req.IsometricCode, err))
	}
	st := staged{
		spools:    BuildSpools(req.Detail.MTO),
		joints:    joints,
		materials: BuildMaterials(req.Detail.MTO),
	}

	log := p.log.With("project", req.ProjectID, "isometric", req.IsometricCode, "revision", req.RevisionCode)

	release, err := p.locker.Acquire(ctx, isolock.Key(req.ProjectID, req.IsometricCode))
	if err != nil {
		return fail(fmt.Errorf("detail: lock isometric %s: %w", req.IsometricCode, err))
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("release isometric lock", "error", err)
		}
	}()

	var summary notify.ImpactSummary
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		summary, err = p.apply(tx, req, st, res)
		return err
	})
	if err != nil {
		*res = Result{Warnings: res.Warnings}
		log.Warn("detail import failed", "error", err)
		return fail(err)
	}

	res.Success = true
	res.Message = fmt.Sprintf("imported %d spools, %d joints, %d materials into isometric %s revision %s",
		len(st.spools), len(st.joints), len(st.materials), req.IsometricCode, req.RevisionCode)
	log.Info("detail imported",
		"revision_id", res.RevisionID, "spools", len(st.spools), "joints", len(st.joints),
		"materials", len(st.materials), "impacts", res.ImpactCount)

	if res.ImpactsDetected {
		p.notifier.ImpactsDetected(ctx, summary)
	}
	return res, nil
}

// apply runs the revision transition inside tx and fills res.
func (p *Processor) apply(tx *gorm.DB, req Request, st staged, res *Result) (notify.ImpactSummary, error) {
	var summary notify.ImpactSummary

	iso, err := revision.FindIsometric(tx, req.ProjectID, req.IsometricCode)
	if err != nil {
		return summary, fmt.Errorf("detail: isometric %s must be announced before its detail is imported: %w", req.IsometricCode, err)
	}
	if _, err := revision.LockIsometric(tx, iso.ID); err != nil {
		return summary, err
	}

	current, err := revision.CurrentRevision(tx, iso.ID)
	if errors.Is(err, revision.ErrNoCurrentRevision) {
		return summary, fmt.Errorf("detail: isometric %s: %w", req.IsometricCode, revision.ErrNoCurrentRevision)
	}
	if err != nil {
		return summary, err
	}
	if current.Code != req.RevisionCode {
		return summary, fmt.Errorf("detail: %w: file revision %q does not match current revision %q of isometric %s",
			revision.ErrRevisionMismatch, req.RevisionCode, current.Code, req.IsometricCode)
	}
	res.RevisionID = current.ID

	loaded, err := revision.GetRevisionDetails(tx, current.ID)
	if err != nil {
		return summary, err
	}
	if loaded.HasDetails() {
		return summary, fmt.Errorf("detail: isometric %s revision %s: %w", req.IsometricCode, current.Code, revision.ErrAlreadyImported)
	}

	baseline, err := revision.Baseline(tx, iso.ID, current.ID)
	if err != nil {
		return summary, err
	}
	if baseline != nil {
		impacts := impact.Diff(impact.SnapshotOf(baseline), impact.Snapshot{Spools: st.spools, Joints: st.joints})
		prevID := baseline.ID
		batchID, err := impact.Save(tx, current.ID, &prevID, impacts)
		if err != nil {
			return summary, err
		}
		res.BatchID = batchID
		res.ImpactCount = len(impacts)
		res.ImpactsDetected = len(impacts) > 0

		summary = notify.ImpactSummary{
			ProjectID:        req.ProjectID,
			Isometric:        req.IsometricCode,
			Revision:         current.Code,
			PreviousRevision: baseline.Code,
			RevisionID:       current.ID,
			BatchID:          batchID,
		}
		summary.CountKinds(impacts)
	}

	if _, err := revision.Supersede(tx, iso.ID, current.ID); err != nil {
		return summary, err
	}

	if err := insertDetail(tx, current.ID, st); err != nil {
		return summary, fmt.Errorf("detail: isometric %s revision %s: %w", req.IsometricCode, current.Code, err)
	}
	return summary, nil
}

// insertDetail stores spools first, then joints and materials linked to
// them through the name index.
func insertDetail(tx *gorm.DB, revisionID uint, st staged) error {
	spools := make([]models.Spool, len(st.spools))
	copy(spools, st.spools)
	for i := range spools {
		spools[i].RevisionID = revisionID
	}
	if len(spools) > 0 {
		if err := tx.CreateInBatches(spools, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert spools: %w", err)
		}
	}
	ix := IndexSpools(spools)

	joints := make([]models.Joint, len(st.joints))
	copy(joints, st.joints)
	for i := range joints {
		joints[i].RevisionID = revisionID
		joints[i].SpoolID = ix.Resolve(joints[i].SpoolName).ForeignKey()
	}
	if len(joints) > 0 {
		if err := tx.CreateInBatches(joints, insertBatchSize).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: duplicate joint tag", revision.ErrValidation)
			}
			return fmt.Errorf("insert joints: %w", err)
		}
	}

	materials := make([]models.Material, len(st.materials))
	copy(materials, st.materials)
	for i := range materials {
		materials[i].RevisionID = revisionID
		materials[i].SpoolID = ix.Resolve(materials[i].SpoolName).ForeignKey()
	}
	if len(materials) > 0 {
		if err := tx.CreateInBatches(materials, insertBatchSize).Error; err != nil {
			return fmt.Errorf("insert materials: %w", err)
		}
	}
	return nil
}
