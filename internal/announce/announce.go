// Package announce applies a client revision announcement: it creates
// isometrics and revisions from normalized rows and settles which revision of
// each isometric is CURRENT.
package announce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/isotrack/internal/isolock"
	"github.com/zulandar/isotrack/internal/logger"
	"github.com/zulandar/isotrack/internal/models"
	"github.com/zulandar/isotrack/internal/revision"
	"github.com/zulandar/isotrack/internal/rows"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// DefaultWorkers bounds how many isometric groups are processed at once.
const DefaultWorkers = 4

// Result summarizes one announcement batch.
type Result struct {
	Processed int      `json:"processed"`
	Errors    int      `json:"errors"`
	Details   []string `json:"details"`
}

// Processor applies announcement batches.
type Processor struct {
	db      *gorm.DB
	locker  isolock.Locker
	log     *logger.Logger
	workers int
	now     func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithWorkers sets the number of isometric groups processed in parallel.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithClock overrides the clock used for default emission dates.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor builds a Processor. A nil locker falls back to an in-process
// lock and a nil logger discards output.
func NewProcessor(db *gorm.DB, locker isolock.Locker, log *logger.Logger, opts ...Option) *Processor {
	if locker == nil {
		locker = isolock.NewLocal()
	}
	if log == nil {
		log = logger.Nop()
	}
	p := &Processor{db: db, locker: locker, log: log, workers: DefaultWorkers, now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

type group struct {
	code string
	rows []rows.AnnouncementRow
}

// Process applies a batch for one project. Rows are grouped by isometric code
// in order of first appearance; groups run in parallel, each in its own
// transaction under the isometric's lock. A failing group is reported in the
// result and does not affect its siblings. Only a missing project id fails
// the whole call.
func (p *Processor) Process(ctx context.Context, projectID string, batch []rows.AnnouncementRow) (*Result, error) {
	if projectID == "" {
		return nil, fmt.Errorf("announce: project id is required: %w", revision.ErrValidation)
	}

	res := &Result{Details: []string{}}
	var groups []*group
	byCode := make(map[string]*group)
	for i, row := range batch {
		code := revision.NormalizeCode(row.IsoNumber)
		if code == "" {
			res.Errors++
			res.Details = append(res.Details, fmt.Sprintf("row %d: missing isometric code", i+1))
			continue
		}
		g, ok := byCode[code]
		if !ok {
			g = &group{code: code}
			byCode[code] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row)
	}
	if len(groups) == 0 {
		res.Details = append(res.Details, "no valid rows with an isometric code")
		return res, nil
	}

	results := make([]Result, len(groups))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.workers)
	for i, g := range groups {
		i, g := i, g
		eg.Go(func() error {
			results[i] = p.processGroup(egCtx, projectID, g)
			return nil
		})
	}
	_ = eg.Wait()

	for _, r := range results {
		res.Processed += r.Processed
		res.Errors += r.Errors
		res.Details = append(res.Details, r.Details...)
	}
	p.log.Info("announcement processed",
		"project", projectID, "isometrics", len(groups),
		"processed", res.Processed, "errors", res.Errors)
	return res, nil
}

func (p *Processor) processGroup(ctx context.Context, projectID string, g *group) Result {
	log := p.log.With("project", projectID, "isometric", g.code)

	release, err := p.locker.Acquire(ctx, isolock.Key(projectID, g.code))
	if err != nil {
		log.Warn("lock isometric", "error", err)
		return failed(g, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("release isometric lock", "error", err)
		}
	}()

	var out Result
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		out = Result{}
		first := g.rows[0]
		iso, created, err := revision.UpsertIsometric(tx, models.Isometric{
			ProjectID:  projectID,
			Code:       g.code,
			LineNumber: first.LineNumber,
			Area:       first.Area,
			SubArea:    first.SubArea,
			LineType:   first.LineType,
		})
		if err != nil {
			return err
		}
		if created {
			log.Debug("isometric created", "id", iso.ID)
		}
		if _, err := revision.LockIsometric(tx, iso.ID); err != nil {
			return err
		}

		for _, row := range g.rows {
			rev := p.revisionFromRow(iso.ID, row)
			err := revision.CreateRevision(tx, rev)
			switch {
			case errors.Is(err, revision.ErrDuplicateRevision):
				out.Errors++
				out.Details = append(out.Details, fmt.Sprintf(
					"skipped: isometric %s revision %s already exists; edit the existing revision if it needs changes",
					g.code, rev.Code))
				log.Warn("duplicate revision skipped", "revision", rev.Code)
			case err != nil:
				return err
			default:
				out.Processed++
				out.Details = append(out.Details, fmt.Sprintf("created: isometric %s revision %s", g.code, rev.Code))
			}
		}

		current, err := revision.RecomputeCurrent(tx, iso.ID)
		if err != nil {
			return err
		}
		if current != nil {
			log.Info("current revision settled", "revision", current.Code)
		}
		return nil
	})
	if err != nil {
		log.Error("announcement group rolled back", "error", err)
		return failed(g, err)
	}
	return out
}

// failed reports every row of a rolled-back group as an error.
func failed(g *group, err error) Result {
	return Result{
		Errors:  len(g.rows),
		Details: []string{fmt.Sprintf("isometric %s: %v", g.code, err)},
	}
}

// revisionFromRow fills a new revision from an announcement row. The
// emission date is the transmittal date, else today; a blank revision code
// reads as "0".
func (p *Processor) revisionFromRow(isometricID uint, row rows.AnnouncementRow) *models.Revision {
	emission := p.now().UTC().Truncate(24 * time.Hour)
	if row.TransmittalDate != nil {
		emission = *row.TransmittalDate
	}
	code := revision.NormalizeCode(row.RevisionNumber)
	if code == "" {
		code = "0"
	}
	status := row.SpoolingStatus
	if status == "" {
		status = models.DefaultSpoolingStatus
	}
	return &models.Revision{
		IsometricID:         isometricID,
		Code:                code,
		EmissionDate:        emission,
		ClientFileCode:      row.ClientFileCode,
		ClientRevisionCode:  row.ClientRevisionCode,
		TransmittalCode:     row.TransmittalCode,
		TransmittalNumber:   row.TransmittalNumber,
		TransmittalDate:     row.TransmittalDate,
		HasPDF:              row.HasPDF,
		HasIDF:              row.HasIDF,
		SpoolingStatus:      status,
		SpoolingDate:        row.SpoolingDate,
		SpoolingSentDate:    row.SpoolingSentDate,
		TotalJointsCount:    row.TotalJointsCount,
		ExecutedJointsCount: row.ExecutedJointsCount,
		PendingJointsCount:  row.PendingJointsCount,
		Comment:             row.Comment,
	}
}
