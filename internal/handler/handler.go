package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Jose00521/raffle-stats-service/internal/dto"
	"github.com/Jose00521/raffle-stats-service/internal/repository"
)

const dateLayout = "2006-01-02"

// Handler serves the dashboard read API over the snapshot tables.
type Handler struct {
	queries repository.SnapshotQueries
	router  *gin.Engine
	log     *zap.Logger
}

// NewHandler creates the API handler and registers its routes.
func NewHandler(queries repository.SnapshotQueries, log *zap.Logger) *Handler {
	h := &Handler{
		queries: queries,
		router:  gin.Default(),
		log:     log,
	}

	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.GET("/campaigns/:id/snapshots", h.getCampaignSnapshots)
	h.router.GET("/creators/:id/snapshots", h.getCreatorSnapshots)
	h.router.GET("/participants/:id/snapshots", h.getParticipantSnapshots)
}

func (h *Handler) healthCheck(c *gin.Context) {
	if err := h.queries.Ping(c.Request.Context()); err != nil {
		h.log.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// dateRange parses ?date= or ?from=&to= query parameters. A single date is
// the common dashboard case; a range feeds the chart series.
func dateRange(c *gin.Context) (from, to time.Time, single bool, err error) {
	if date := c.Query("date"); date != "" {
		day, parseErr := time.Parse(dateLayout, date)
		if parseErr != nil {
			return time.Time{}, time.Time{}, false, parseErr
		}
		return day, day, true, nil
	}

	from, err = time.Parse(dateLayout, c.DefaultQuery("from", time.Now().UTC().Format(dateLayout)))
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	to, err = time.Parse(dateLayout, c.DefaultQuery("to", time.Now().UTC().Format(dateLayout)))
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, false, errors.New("to must not be before from")
	}
	return from, to, false, nil
}

func (h *Handler) getCampaignSnapshots(c *gin.Context) {
	from, to, single, err := dateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	if single {
		snapshot, err := h.queries.CampaignSnapshot(c.Request.Context(), c.Param("id"), from)
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found"})
			return
		}
		if err != nil {
			h.log.Error("Failed to query campaign snapshot", zap.Error(err))
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error"})
			return
		}
		c.JSON(http.StatusOK, dto.NewCampaignSnapshotResponse(snapshot))
		return
	}

	snapshots, err := h.queries.CampaignSnapshotRange(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		h.log.Error("Failed to query campaign snapshot range", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error"})
		return
	}

	out := make([]dto.CampaignSnapshotResponse, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, dto.NewCampaignSnapshotResponse(s))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getCreatorSnapshots(c *gin.Context) {
	from, to, single, err := dateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	if single {
		snapshot, err := h.queries.CreatorSnapshot(c.Request.Context(), c.Param("id"), from)
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found"})
			return
		}
		if err != nil {
			h.log.Error("Failed to query creator snapshot", zap.Error(err))
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error"})
			return
		}
		c.JSON(http.StatusOK, dto.NewCreatorSnapshotResponse(snapshot))
		return
	}

	snapshots, err := h.queries.CreatorSnapshotRange(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		h.log.Error("Failed to query creator snapshot range", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error"})
		return
	}

	out := make([]dto.CreatorSnapshotResponse, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, dto.NewCreatorSnapshotResponse(s))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getParticipantSnapshots(c *gin.Context) {
	from, to, single, err := dateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation_error", Message: err.Error()})
		return
	}

	if single {
		snapshot, err := h.queries.ParticipantSnapshot(c.Request.Context(), c.Param("id"), from)
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found"})
			return
		}
		if err != nil {
			h.log.Error("Failed to query participant snapshot", zap.Error(err))
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error"})
			return
		}
		c.JSON(http.StatusOK, dto.NewParticipantSnapshotResponse(snapshot))
		return
	}

	snapshots, err := h.queries.ParticipantSnapshotRange(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		h.log.Error("Failed to query participant snapshot range", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error"})
		return
	}

	out := make([]dto.ParticipantSnapshotResponse, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, dto.NewParticipantSnapshotResponse(s))
	}
	c.JSON(http.StatusOK, out)
}
