package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/north-cloud/pulse/internal/logger"
)

type RegionsHandler struct {
	svc    FeedService
	logger logger.Logger
}

func NewRegionsHandler(svc FeedService, log logger.Logger) *RegionsHandler {
	return &RegionsHandler{svc: svc, logger: log}
}

// List returns the known regions with their latest activity snapshot.
func (h *RegionsHandler) List(c *gin.Context) {
	regions := h.svc.Regions()
	c.JSON(http.StatusOK, gin.H{
		"regions": regions,
		"count":   len(regions),
	})
}
