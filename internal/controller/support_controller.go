package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizbite/quizbite/internal/dto"
)

// DonationHandler starts a checkout session for sponsoring questions.
// Donations are open to anonymous callers.
func (ctrl *Controller) DonationHandler(c *gin.Context) {
	var req dto.DonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := ctrl.paymentSvc.CreateDonation(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	// the frontend redirects straight to this URL
	c.String(http.StatusOK, resp.URL)
}

// FeedbackHandler emails feedback about one question to the maintainers.
func (ctrl *Controller) FeedbackHandler(c *gin.Context) {
	id, ok := ctrl.identity(c)
	if !ok {
		return
	}

	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if err := ctrl.feedbackSvc.Send(c.Request.Context(), req, email(id), c.ClientIP()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SharePageHandler serves the frontend page with link-preview titles
// rewritten to the shared topic.
func (ctrl *Controller) SharePageHandler(c *gin.Context) {
	page, err := ctrl.shareSvc.Page(c.Request.Context(), c.Param("topic"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
