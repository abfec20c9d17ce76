package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/quizbite/quizbite/config"
	"github.com/quizbite/quizbite/internal/auth"
	"github.com/quizbite/quizbite/internal/controller"
	"github.com/quizbite/quizbite/internal/database"
	"github.com/quizbite/quizbite/internal/logger"
	"github.com/quizbite/quizbite/internal/repository"
	"github.com/quizbite/quizbite/internal/service"
)

func main() {
	logger.Init()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			NewVerifier,

			database.NewAWSConfig,
			database.NewDynamoClient,
			database.NewSESClient,
			database.NewS3Client,
			database.NewSecretsClient,

			repository.NewQuestionRepository,
			repository.NewUserRepository,

			service.NewSelectionSource,
			service.NewQuestionService,
			service.NewInteractionService,
			service.NewListService,
			service.NewUserService,
			service.NewPaymentService,
			service.NewFeedbackService,
			service.NewShareService,

			controller.NewController,
			controller.NewGinEngine,
		),
		fx.Invoke(StartServer),
	)

	app.Run()

	log.Info().Msg("Application shutting down gracefully...")
}

func NewVerifier(cfg *config.Config) (*auth.Verifier, error) {
	return auth.NewVerifier(cfg.Auth.JwkN, cfg.Auth.JwkE, cfg.Auth.Audience)
}

// StartServer registers the routes and ties the HTTP server to the
// application lifecycle.
func StartServer(lc fx.Lifecycle, router *gin.Engine, ctrl *controller.Controller, cfg *config.Config) {
	ctrl.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Quizbite API server starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}
