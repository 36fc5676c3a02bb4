// Package collector is a local stand-in for the remote logging endpoint. It
// accepts the tracker's form POSTs, keeps them in SQLite and serves them back
// for inspection.
package collector

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// eventForm mirrors the five fields of the wire format.
type eventForm struct {
	Event   string `form:"event" binding:"required"`
	Variant string `form:"variant"`
	UserID  string `form:"userId"`
	TS      int64  `form:"ts"`
	Meta    string `form:"meta"`
}

type Handler struct {
	DB     *Database
	Logger *slog.Logger
	Now    func() time.Time
}

// NewHandler creates a collector handler over db.
func NewHandler(db *Database) *Handler {
	return &Handler{DB: db, Logger: slog.Default(), Now: time.Now}
}

// Register mounts the collector routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/exec", h.Collect)
	r.GET("/api/events", h.Recent)
	r.GET("/api/events/summary", h.Summary)
}

func (h *Handler) Collect(c *gin.Context) {
	var form eventForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.DB.Insert(c.Request.Context(), StoredEvent{
		Event:      form.Event,
		Variant:    form.Variant,
		UserID:     form.UserID,
		TS:         form.TS,
		Meta:       form.Meta,
		ReceivedAt: h.Now(),
	})
	if err != nil {
		h.Logger.Error("store event", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store event"})
		return
	}

	h.Logger.Debug("event received", "id", id, "event", form.Event, "variant", form.Variant)
	c.JSON(http.StatusOK, gin.H{"status": "success", "id": id})
}

func (h *Handler) Recent(c *gin.Context) {
	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxLimit)
	}

	events, err := h.DB.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.DB.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}
