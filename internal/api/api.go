// Package api exposes the profile store over HTTP for inspection and test
// setup.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/celerix-dev/celerix-abtest/internal/engine"
	"github.com/celerix-dev/celerix-abtest/pkg/sdk"
)

type Handler struct {
	Store sdk.Store
}

// Register mounts the profile routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/profiles", h.GetProfiles)
	r.GET("/profiles/:profile", h.GetProfile)
	r.POST("/profiles/:profile/:key", h.Set)
	r.DELETE("/profiles/:profile/:key", h.Delete)
}

// status maps store errors onto HTTP codes.
func status(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidProfile), errors.Is(err, engine.ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) GetProfiles(c *gin.Context) {
	profiles, err := h.Store.GetProfiles()
	if err != nil {
		c.JSON(status(err), gin.H{"error": err.Error()})
		return
	}
	if profiles == nil {
		profiles = []string{}
	}
	c.JSON(http.StatusOK, profiles)
}

func (h *Handler) GetProfile(c *gin.Context) {
	data, err := h.Store.GetProfile(c.Param("profile"))
	if err != nil {
		c.JSON(status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) Set(c *gin.Context) {
	var val string
	if err := c.ShouldBindJSON(&val); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON string"})
		return
	}

	if err := h.Store.Set(c.Param("profile"), c.Param("key"), val); err != nil {
		c.JSON(status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.Store.Delete(c.Param("profile"), c.Param("key")); err != nil {
		c.JSON(status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
