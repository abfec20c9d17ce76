package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"

	"github.com/quizbite/quizbite/internal/dto"
)

// GetUserHandler returns the caller's subscription. Callers without a
// stored record get an empty subscription, not a 404.
func (ctrl *Controller) GetUserHandler(c *gin.Context) {
	id, ok := ctrl.requireIdentity(c)
	if !ok {
		return
	}

	user, err := ctrl.userSvc.Get(c.Request.Context(), id.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	var resp dto.UserResponse
	copier.Copy(&resp, user)
	c.JSON(http.StatusOK, resp)
}

// UpdateSubscriptionHandler replaces the caller's topic subscriptions.
func (ctrl *Controller) UpdateSubscriptionHandler(c *gin.Context) {
	id, ok := ctrl.requireIdentity(c)
	if !ok {
		return
	}

	var req dto.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	user, err := ctrl.userSvc.UpdateSubscription(c.Request.Context(), id.Email, req.Topics)
	if err != nil {
		respondError(c, err)
		return
	}

	var resp dto.UserResponse
	copier.Copy(&resp, user)
	c.JSON(http.StatusOK, resp)
}
