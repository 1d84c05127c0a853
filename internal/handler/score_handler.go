package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/registrar-api/internal/service"
	appErrors "github.com/opencampus/registrar-api/pkg/errors"
	"github.com/opencampus/registrar-api/pkg/response"
)

// ScoreHandler exposes the scoring endpoint.
type ScoreHandler struct {
	scores *service.ScoreService
}

// NewScoreHandler constructs ScoreHandler.
func NewScoreHandler(scores *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scores: scores}
}

// SetScore godoc
// @Summary Record a score for an enrollment
// @Tags Scores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SetScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Router /scores [put]
func (h *ScoreHandler) SetScore(c *gin.Context) {
	var req service.SetScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.scores.SetScore(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}
