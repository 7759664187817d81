package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/services"
	"github.com/kendall-kelly/home-therapy-api/utils"
)

// CreateFeedbackRequest represents the request body for reviewing an order
type CreateFeedbackRequest struct {
	Rating  float64  `json:"rating" binding:"required"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// UpdateFeedbackRequest changes only the fields that are present
type UpdateFeedbackRequest struct {
	Rating  *float64  `json:"rating"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

// FeedbackController serves order reviews
type FeedbackController struct {
	feedback *services.FeedbackService
	log      *zap.Logger
}

func NewFeedbackController(feedback *services.FeedbackService, log *zap.Logger) *FeedbackController {
	return &FeedbackController{feedback: feedback, log: log}
}

// CreateFeedback handles POST /api/v1/orders/:id/feedback
func (h *FeedbackController) CreateFeedback(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request data: "+err.Error())
		return
	}

	feedback, err := h.feedback.CreateFeedback(c.Request.Context(), actor.ID, orderID, services.FeedbackInput{
		Rating:  req.Rating,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondCreated(c, feedback)
}

// UpdateFeedback handles PUT /api/v1/feedbacks/:id
func (h *FeedbackController) UpdateFeedback(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	feedbackID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request data: "+err.Error())
		return
	}

	feedback, err := h.feedback.UpdateFeedback(c.Request.Context(), actor.ID, feedbackID, services.FeedbackUpdate{
		Rating:  req.Rating,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, feedback)
}

// DeleteFeedback handles DELETE /api/v1/feedbacks/:id
func (h *FeedbackController) DeleteFeedback(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	feedbackID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.feedback.DeleteFeedback(c.Request.Context(), actor.ID, feedbackID); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, nil)
}

// GetFeedback handles GET /api/v1/feedbacks/:id
func (h *FeedbackController) GetFeedback(c *gin.Context) {
	feedbackID, ok := idParam(c, "id")
	if !ok {
		return
	}

	feedback, err := h.feedback.GetFeedback(c.Request.Context(), feedbackID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, feedback)
}

// ListTherapistFeedbacks handles GET /api/v1/therapists/:id/feedbacks
func (h *FeedbackController) ListTherapistFeedbacks(c *gin.Context) {
	therapistID, ok := idParam(c, "id")
	if !ok {
		return
	}

	page := pagination(c)
	feedbacks, total, err := h.feedback.ListTherapistFeedbacks(c.Request.Context(), therapistID, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, utils.NewPage(feedbacks, total, page))
}

// ListMyFeedbacks handles GET /api/v1/users/me/feedbacks
func (h *FeedbackController) ListMyFeedbacks(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	page := pagination(c)
	feedbacks, total, err := h.feedback.ListUserFeedbacks(c.Request.Context(), actor.ID, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, utils.NewPage(feedbacks, total, page))
}
