package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/rs/zerolog/log"

	"github.com/quizbite/quizbite/config"
	"github.com/quizbite/quizbite/internal/auth"
	"github.com/quizbite/quizbite/internal/controller"
	"github.com/quizbite/quizbite/internal/database"
	"github.com/quizbite/quizbite/internal/logger"
	"github.com/quizbite/quizbite/internal/repository"
	"github.com/quizbite/quizbite/internal/service"
)

var adapter *ginadapter.GinLambdaV2

// init builds the whole app once per cold start.
func init() {
	logger.Init()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	verifier, err := auth.NewVerifier(cfg.Auth.JwkN, cfg.Auth.JwkE, cfg.Auth.Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build token verifier")
	}

	awsCfg, err := database.NewAWSConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}

	dynamo := database.NewDynamoClient(awsCfg)
	questions := repository.NewQuestionRepository(dynamo, cfg)
	users := repository.NewUserRepository(dynamo, cfg)

	ctrl := controller.NewController(
		service.NewQuestionService(questions, service.NewSelectionSource()),
		service.NewInteractionService(questions, users),
		service.NewListService(questions),
		service.NewUserService(users),
		service.NewPaymentService(database.NewSecretsClient(awsCfg), cfg),
		service.NewFeedbackService(database.NewSESClient(awsCfg), questions, cfg),
		service.NewShareService(database.NewS3Client(awsCfg), cfg),
		verifier,
		cfg,
	)

	router := controller.NewGinEngine(cfg)
	ctrl.RegisterRoutes(router)
	adapter = ginadapter.NewV2(router)
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return adapter.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(handler)
}
