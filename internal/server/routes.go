package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/isotrack/internal/detail"
	"github.com/zulandar/isotrack/internal/impact"
	"github.com/zulandar/isotrack/internal/revision"
	"github.com/zulandar/isotrack/internal/rows"
	"gorm.io/gorm"
)

type handlers struct {
	deps Deps
}

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, h *handlers) {
	router.GET("/healthz", h.health)

	api := router.Group("/api")
	{
		api.GET("/projects/:project/isometrics", h.listIsometrics)
		api.GET("/projects/:project/impacts/pending", h.listPending)
		api.POST("/projects/:project/announcements", h.announce)
		api.POST("/projects/:project/imports", h.importDetail)

		api.GET("/isometrics/:id", h.getIsometric)
		api.GET("/revisions/:id", h.getRevision)
		api.GET("/revisions/:id/impacts", h.listRevisionImpacts)

		api.POST("/impacts/:id/approve", h.approve)
		api.POST("/impacts/:id/reject", h.reject)
	}
}

type announcementBody struct {
	Rows []rows.Loose `json:"rows"`
}

type importBody struct {
	Isometric       string       `json:"isometric"`
	Revision        string       `json:"revision"`
	BoltedJoints    []rows.Loose `json:"bolted_joints"`
	SpoolsWelds     []rows.Loose `json:"spools_welds"`
	MaterialTakeOff []rows.Loose `json:"material_take_off"`
}

type reviewBody struct {
	Reviewer string `json:"reviewer"`
	Reason   string `json:"reason"`
}

func (h *handlers) health(c *gin.Context) {
	sqlDB, err := h.deps.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) listIsometrics(c *gin.Context) {
	isos, err := revision.ListIsometrics(h.db(c), c.Param("project"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, isos)
}

func (h *handlers) getIsometric(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	iso, err := revision.GetIsometric(h.db(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, iso)
}

func (h *handlers) getRevision(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	rev, err := revision.GetRevisionDetails(h.db(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rev)
}

func (h *handlers) listRevisionImpacts(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	impacts, err := impact.ListByRevision(h.db(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, impacts)
}

func (h *handlers) listPending(c *gin.Context) {
	impacts, err := impact.ListPending(h.db(c), c.Param("project"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, impacts)
}

func (h *handlers) announce(c *gin.Context) {
	var body announcementBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.deps.Announcer.Process(c.Request.Context(), c.Param("project"), rows.NormalizeAnnouncements(body.Rows))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) importDetail(c *gin.Context) {
	var body importBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.deps.Importer.Import(c.Request.Context(), detail.Request{
		ProjectID:     c.Param("project"),
		IsometricCode: body.Isometric,
		RevisionCode:  body.Revision,
		Detail:        rows.NormalizeDetail(body.BoltedJoints, body.SpoolsWelds, body.MaterialTakeOff),
	})
	if err != nil {
		h.deps.Log.Warn("detail import rejected", "project", c.Param("project"), "isometric", body.Isometric, "error", err)
		c.JSON(statusFor(err), res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) approve(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body reviewBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}
	}
	imp, err := impact.Approve(h.db(c), id, body.Reviewer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, imp)
}

func (h *handlers) reject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body reviewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	imp, err := impact.Reject(h.db(c), id, body.Reason, body.Reviewer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, imp)
}

func (h *handlers) db(c *gin.Context) *gorm.DB {
	return h.deps.DB.WithContext(c.Request.Context())
}

// fail writes the failure envelope with a status derived from err.
func (h *handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.deps.Log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"success": false, "message": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body: " + err.Error()})
}

// parseID reads the :id path parameter, answering 400 when it is not a
// positive integer.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid id " + strconv.Quote(c.Param("id"))})
		return 0, false
	}
	return uint(id), true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, revision.ErrNotFound), errors.Is(err, impact.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, revision.ErrValidation), errors.Is(err, impact.ErrMissingReason):
		return http.StatusBadRequest
	case errors.Is(err, revision.ErrRevisionMismatch),
		errors.Is(err, revision.ErrNoCurrentRevision),
		errors.Is(err, revision.ErrAlreadyImported),
		errors.Is(err, revision.ErrDuplicateRevision),
		errors.Is(err, impact.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
