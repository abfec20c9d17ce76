package controller

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizbite/quizbite/config"
	"github.com/quizbite/quizbite/internal/auth"
	"github.com/quizbite/quizbite/internal/model"
	"github.com/quizbite/quizbite/internal/service"
)

const testTokenHeader = "X-Quizbite-Token"

type stubQuestionService struct {
	question func() *model.Question
}

func (s *stubQuestionService) Random(ctx context.Context, topics, exclude []string, callerHash string) (*model.Question, error) {
	return s.question(), nil
}

func (s *stubQuestionService) Exact(ctx context.Context, topic, qid string) (*model.Question, error) {
	return s.question(), nil
}

func (s *stubQuestionService) Save(ctx context.Context, body []byte, callerHash string) (*model.Question, error) {
	return s.question(), nil
}

func (s *stubQuestionService) ChangeStage(ctx context.Context, topic, qid string, stage model.PublishStage) error {
	return nil
}

type stubInteractionService struct{}

func (stubInteractionService) Record(ctx context.Context, in service.Interaction) model.AnswerState {
	return model.StateAsked
}

func testRouter(t *testing.T, questionSvc service.QuestionService, verifier *auth.Verifier) *gin.Engine {
	t.Helper()

	cfg := &config.Config{}
	cfg.Auth.TokenHeader = testTokenHeader

	ctrl := NewController(questionSvc, stubInteractionService{}, nil, nil, nil, nil, nil, verifier, cfg)
	router := NewGinEngine(cfg)
	ctrl.RegisterRoutes(router)
	return router
}

// testIdentity builds a verifier, a valid signed token and the identity
// it resolves to.
func testIdentity(t *testing.T) (*auth.Verifier, string, *auth.Identity) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	n := base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes())
	verifier, err := auth.NewVerifier(n, e, "quizbite-web")
	require.NoError(t, err)

	claims := jwt.MapClaims{
		"email":          "author@example.com",
		"email_verified": true,
		"aud":            "quizbite-web",
		"exp":            time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)

	id, err := verifier.Identify(token)
	require.NoError(t, err)
	return verifier, token, id
}

// verdictQuestion carries correct flags and explanations, the parts
// that must never reach a caller who has not answered yet.
func verdictQuestion(author string) *model.Question {
	return &model.Question{
		Qid:      "1D759ksnnlogULbRPng3noG",
		Topic:    "rust",
		Question: "What does `let` do?",
		Answers: []model.Answer{
			{A: "Declares a binding", E: "Right, a `let` statement introduces a binding.", C: true},
			{A: "Starts a loop", E: "No, loops start with `loop`, `while` or `for`."},
		},
		Correct: 1,
		Author:  author,
		Title:   "What does let do?",
		Stage:   model.StagePublished,
	}
}

func TestExactFetchCapsFormatForNonAuthors(t *testing.T) {
	router := testRouter(t, &stubQuestionService{question: func() *model.Question {
		return verdictQuestion("somebody-else")
	}}, nil)

	for _, format := range []string{"markdown", "htmlFull"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/question?topic=rust&qid=1D759ksnnlogULbRPng3noG&format="+format, nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, format)
		body := w.Body.String()
		assert.NotContains(t, body, `"c":true`, format)
		assert.NotContains(t, body, "introduces a binding", format)
		assert.NotContains(t, body, `"author"`, format)
	}
}

func TestExactFetchGivesTheAuthorMarkdown(t *testing.T) {
	verifier, token, id := testIdentity(t)
	router := testRouter(t, &stubQuestionService{question: func() *model.Question {
		return verdictQuestion(id.EmailHash)
	}}, verifier)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/question?topic=rust&qid=1D759ksnnlogULbRPng3noG&format=markdown", nil)
	req.Header.Set(testTokenHeader, token)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "What does `let` do?", "raw markdown comes back for editing")
	assert.Contains(t, body, `"c":true`)
	assert.Contains(t, body, "introduces a binding")
}

func TestRandomPickHidesVerdicts(t *testing.T) {
	router := testRouter(t, &stubQuestionService{question: func() *model.Question {
		return verdictQuestion("somebody-else")
	}}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/question?topics=rust&format=htmlFull", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.NotContains(t, body, `"c":true`)
	assert.NotContains(t, body, "introduces a binding")
	assert.NotContains(t, body, `"author"`)
}
