package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/registrar-api/internal/service"
	"github.com/opencampus/registrar-api/pkg/response"
)

// StatsHandler exposes the statistics endpoints.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs StatsHandler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Students godoc
// @Summary Student headcount aggregates
// @Tags Statistics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/students [get]
func (h *StatsHandler) Students(c *gin.Context) {
	stats, err := h.stats.Students(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Courses godoc
// @Summary Course catalogue aggregates
// @Tags Statistics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/courses [get]
func (h *StatsHandler) Courses(c *gin.Context) {
	stats, err := h.stats.Courses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Enrollments godoc
// @Summary Enrollment leaderboard and course-load histogram
// @Tags Statistics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/enrollments [get]
func (h *StatsHandler) Enrollments(c *gin.Context) {
	stats, err := h.stats.Enrollments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Scores godoc
// @Summary Score aggregates, optionally per semester
// @Tags Statistics
// @Produce json
// @Security BearerAuth
// @Param semester query string false "Semester"
// @Success 200 {object} response.Envelope
// @Router /stats/scores [get]
func (h *StatsHandler) Scores(c *gin.Context) {
	stats, err := h.stats.Scores(c.Request.Context(), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// CourseDistribution godoc
// @Summary Score distribution for one course and semester
// @Tags Statistics
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param semester query string true "Semester"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/score-distribution [get]
func (h *StatsHandler) CourseDistribution(c *gin.Context) {
	dist, err := h.stats.CourseDistribution(c.Request.Context(), c.Param("id"), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dist, nil)
}

// System godoc
// @Summary Instrumentation snapshot
// @Tags Statistics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /stats/system [get]
func (h *StatsHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.stats.System(c.Request.Context()), nil)
}
