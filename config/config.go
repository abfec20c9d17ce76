package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	AWS      AWS
	Tables   Tables
	Auth     Auth
	Email    Email
	Payments Payments
	Share    Share
}

type Server struct {
	Port string
}

type AWS struct {
	Region string
}

type Tables struct {
	Questions string
	Users     string
}

type Auth struct {
	// RSA public key components of the identity provider's JWK.
	JwkN     string
	JwkE     string
	Audience string
	// Header carrying the bearer token.
	TokenHeader string
	// Email hashes allowed to change publish stages.
	ModHashes []string
}

type Email struct {
	From       string
	FeedbackTo string
}

type Payments struct {
	// ARN of the Secrets Manager secret holding the processor keys.
	SecretARN string
}

type Share struct {
	Bucket string
	Key    string
	// Base URL for links back to a question, e.g. https://quizbite.app/question
	QuestionURL string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AUTH_TOKEN_HEADER", "x-quizbite-token")

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")

	config.AWS.Region = viper.GetString("AWS_REGION")

	config.Tables.Questions = viper.GetString("QUESTIONS_TABLE")
	config.Tables.Users = viper.GetString("USERS_TABLE")

	config.Auth.JwkN = viper.GetString("AUTH_JWK_N")
	config.Auth.JwkE = viper.GetString("AUTH_JWK_E")
	config.Auth.Audience = viper.GetString("AUTH_AUDIENCE")
	config.Auth.TokenHeader = viper.GetString("AUTH_TOKEN_HEADER")
	config.Auth.ModHashes = viper.GetStringSlice("AUTH_MOD_HASHES")

	config.Email.From = viper.GetString("EMAIL_FROM")
	config.Email.FeedbackTo = viper.GetString("EMAIL_FEEDBACK_TO")

	config.Payments.SecretARN = viper.GetString("PAYMENTS_SECRET_ARN")

	config.Share.Bucket = viper.GetString("SHARE_BUCKET")
	config.Share.Key = viper.GetString("SHARE_KEY")
	config.Share.QuestionURL = viper.GetString("SHARE_QUESTION_URL")

	log.Info().Str("port", config.Server.Port).Str("region", config.AWS.Region).Msg("Config loaded")
	return &config, nil
}
