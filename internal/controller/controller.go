package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/quizbite/quizbite/config"
	"github.com/quizbite/quizbite/internal/auth"
	"github.com/quizbite/quizbite/internal/dto"
	"github.com/quizbite/quizbite/internal/repository"
	"github.com/quizbite/quizbite/internal/service"
)

type Controller struct {
	questionSvc    service.QuestionService
	interactionSvc service.InteractionService
	listSvc        service.ListService
	userSvc        service.UserService
	paymentSvc     service.PaymentService
	feedbackSvc    service.FeedbackService
	shareSvc       service.ShareService

	verifier    *auth.Verifier
	tokenHeader string
	modHashes   map[string]bool
}

func NewController(
	questionSvc service.QuestionService,
	interactionSvc service.InteractionService,
	listSvc service.ListService,
	userSvc service.UserService,
	paymentSvc service.PaymentService,
	feedbackSvc service.FeedbackService,
	shareSvc service.ShareService,
	verifier *auth.Verifier,
	cfg *config.Config,
) *Controller {
	mods := make(map[string]bool, len(cfg.Auth.ModHashes))
	for _, h := range cfg.Auth.ModHashes {
		mods[h] = true
	}
	return &Controller{
		questionSvc:    questionSvc,
		interactionSvc: interactionSvc,
		listSvc:        listSvc,
		userSvc:        userSvc,
		paymentSvc:     paymentSvc,
		feedbackSvc:    feedbackSvc,
		shareSvc:       shareSvc,
		verifier:       verifier,
		tokenHeader:    cfg.Auth.TokenHeader,
		modHashes:      mods,
	}
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", cfg.Auth.TokenHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	return r
}

func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/question", ctrl.GetQuestionHandler)
		apiV1.PUT("/question", ctrl.SaveQuestionHandler)
		apiV1.PUT("/question/stage", ctrl.ChangeStageHandler)

		apiV1.GET("/questions/mine", ctrl.ListMineHandler)
		apiV1.GET("/questions/:topic", ctrl.ListTopicHandler)

		apiV1.GET("/user", ctrl.GetUserHandler)
		apiV1.PUT("/user", ctrl.UpdateSubscriptionHandler)

		apiV1.POST("/donation", ctrl.DonationHandler)
		apiV1.POST("/feedback", ctrl.FeedbackHandler)
	}

	router.GET("/share/:topic", ctrl.SharePageHandler)
}

// identity returns the verified caller, or nil when no token was sent.
// A token that fails verification aborts the request with 401.
func (ctrl *Controller) identity(c *gin.Context) (*auth.Identity, bool) {
	token := c.GetHeader(ctrl.tokenHeader)
	if token == "" {
		return nil, true
	}

	id, err := ctrl.verifier.Identify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid token"})
		return nil, false
	}
	return id, true
}

// requireIdentity is identity for endpoints that refuse anonymous calls.
func (ctrl *Controller) requireIdentity(c *gin.Context) (*auth.Identity, bool) {
	id, ok := ctrl.identity(c)
	if !ok {
		return nil, false
	}
	if id == nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Sign in required"})
		return nil, false
	}
	return id, true
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Not found"})
	case errors.Is(err, repository.ErrAuthorMismatch):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "Owned by another author"})
	case errors.Is(err, service.ErrBadInput):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal error"})
	}
}
