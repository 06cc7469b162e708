package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/liftbeat/backend/internal/apierror"
	"github.com/liftbeat/backend/internal/config"
	"github.com/liftbeat/backend/internal/models"
	"github.com/liftbeat/backend/internal/service"
)

type InsightsHandler struct {
	insightsService service.InsightsService
	cfg             config.InsightsConfig
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(insightsService service.InsightsService, cfg config.InsightsConfig) *InsightsHandler {
	return &InsightsHandler{
		insightsService: insightsService,
		cfg:             cfg,
	}
}

// GetSummary handles GET /api/v1/insights/summary
func (h *InsightsHandler) GetSummary(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	days, ok := h.parseDays(c)
	if !ok {
		return
	}

	filters := models.SessionFilters{
		Split:  optionalQuery(c, "split"),
		Genre:  optionalQuery(c, "genre"),
		Artist: optionalQuery(c, "artist"),
	}

	summary, err := h.insightsService.Summary(c.Request.Context(), userID, days, filters)
	if err != nil {
		apierror.WriteProblem(c, apierror.NewUpstreamError(apierror.GetRequestID(c), err.Error()))
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetDigest handles GET /api/v1/insights/digest
func (h *InsightsHandler) GetDigest(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	days, ok := h.parseDays(c)
	if !ok {
		return
	}

	digest, err := h.insightsService.Digest(c.Request.Context(), userID, days)
	if err != nil {
		apierror.WriteProblem(c, apierror.NewUpstreamError(apierror.GetRequestID(c), err.Error()))
		return
	}

	c.JSON(http.StatusOK, digest)
}

// GetSoundMap handles GET /api/v1/insights/sound-map
func (h *InsightsHandler) GetSoundMap(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	days, ok := h.parseDays(c)
	if !ok {
		return
	}

	axis := c.DefaultQuery("axis", service.AxisEnergyBPM)
	if axis != service.AxisEnergyBPM && axis != service.AxisGenreEnergy {
		apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), []apierror.FieldError{
			{Field: "axis", Message: "must be one of: energy-bpm, genre-energy"},
		}))
		return
	}

	soundMap, err := h.insightsService.SoundMap(c.Request.Context(), userID, days, axis)
	if err != nil {
		apierror.WriteProblem(c, apierror.NewUpstreamError(apierror.GetRequestID(c), err.Error()))
		return
	}

	c.JSON(http.StatusOK, soundMap)
}

// parseDays resolves the days query parameter against the configured
// default and ceiling. Reports a validation problem and returns ok=false
// on bad input.
func (h *InsightsHandler) parseDays(c *gin.Context) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return h.cfg.DefaultDays, true
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 {
		apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), []apierror.FieldError{
			{Field: "days", Message: "must be a positive integer"},
		}))
		return 0, false
	}
	if days > h.cfg.MaxDays {
		days = h.cfg.MaxDays
	}
	return days, true
}

// requireUserID pulls the authenticated user id set by the auth
// middleware. Reports a problem and returns ok=false when missing.
func requireUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
		return "", false
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		apierror.WriteProblem(c, apierror.NewUnauthorizedError(apierror.GetRequestID(c)))
		return "", false
	}
	return id, true
}

// optionalQuery returns a pointer to the query value, or nil when absent
// or empty.
func optionalQuery(c *gin.Context, key string) *string {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	return &v
}
