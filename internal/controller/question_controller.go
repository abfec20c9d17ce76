package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/quizbite/quizbite/internal/auth"
	"github.com/quizbite/quizbite/internal/dto"
	"github.com/quizbite/quizbite/internal/model"
	"github.com/quizbite/quizbite/internal/service"
)

// GetQuestionHandler serves both flows of the question endpoint:
// an exact fetch by topic and qid, or a random pick from the requested
// topics. When the answers parameter is present the interaction is
// graded and recorded before the full question is returned.
func (ctrl *Controller) GetQuestionHandler(c *gin.Context) {
	id, ok := ctrl.identity(c)
	if !ok {
		return
	}

	answers, answered := parseAnswers(c)

	topic := c.Query("topic")
	qid := c.Query("qid")
	if topic != "" && qid != "" {
		ctrl.exactQuestion(c, id, topic, qid, answers, answered)
		return
	}

	ctrl.randomQuestion(c, id)
}

func (ctrl *Controller) exactQuestion(c *gin.Context, id *auth.Identity, topic, qid string, answers []int, answered bool) {
	q, err := ctrl.questionSvc.Exact(c.Request.Context(), topic, qid)
	if err != nil {
		respondError(c, err)
		return
	}

	callerIsAuthor := id != nil && q.Author == id.EmailHash

	if answered {
		state := ctrl.interactionSvc.Record(c.Request.Context(), service.Interaction{
			Question:   q,
			Answers:    answers,
			Email:      email(id),
			CallerHash: hash(id),
		})
		q = q.Format(model.FormatHTMLFull, answers)
		if !callerIsAuthor {
			q.Author = ""
		}
		c.JSON(http.StatusOK, gin.H{"question": q, "answered": state.String()})
		return
	}

	// authors get the raw markdown back for editing; everyone else may
	// only pick the rendering that keeps the verdict hidden
	format := model.FormatHTMLShort
	if callerIsAuthor {
		format = model.FormatMarkdownFull
	}
	if f, ok := parseFormat(c.Query("format")); ok && (callerIsAuthor || f == model.FormatHTMLShort) {
		format = f
	}

	if !callerIsAuthor {
		ctrl.interactionSvc.Record(c.Request.Context(), service.Interaction{
			Question:   q,
			Email:      email(id),
			CallerHash: hash(id),
		})
	}

	q = q.Format(format, nil)
	if !callerIsAuthor {
		q.Author = ""
	}
	c.JSON(http.StatusOK, q)
}

func (ctrl *Controller) randomQuestion(c *gin.Context, id *auth.Identity) {
	topics := splitParam(c.Query("topics"))
	if len(topics) == 0 {
		topics = []string{model.AnyTopic}
	}
	exclude := splitParam(c.Query("exclude"))

	q, err := ctrl.questionSvc.Random(c.Request.Context(), topics, exclude, hash(id))
	if err != nil {
		respondError(c, err)
		return
	}

	ctrl.interactionSvc.Record(c.Request.Context(), service.Interaction{
		Question:   q,
		Email:      email(id),
		CallerHash: hash(id),
	})

	// random picks are always for answering, never for editing
	q = q.Format(model.FormatHTMLShort, nil)
	q.Author = ""
	c.JSON(http.StatusOK, q)
}

// SaveQuestionHandler stores a new or edited question under the
// caller's authorship. Edits to someone else's question are refused.
func (ctrl *Controller) SaveQuestionHandler(c *gin.Context) {
	id, ok := ctrl.requireIdentity(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Unreadable body"})
		return
	}

	q, err := ctrl.questionSvc.Save(c.Request.Context(), body, id.EmailHash)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// ChangeStageHandler publishes or unpublishes a question. Moderators only.
func (ctrl *Controller) ChangeStageHandler(c *gin.Context) {
	id, ok := ctrl.requireIdentity(c)
	if !ok {
		return
	}
	if !ctrl.modHashes[id.EmailHash] {
		log.Warn().Str("hash", id.EmailHash).Msg("Stage change refused")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Moderators only"})
		return
	}

	var req dto.StageChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	stage, err := model.ParsePublishStage(req.Stage)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if err := ctrl.questionSvc.ChangeStage(c.Request.Context(), req.Topic, req.Qid, stage); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTopicHandler returns the published questions of one topic,
// annotated with the caller's answer history when signed in.
func (ctrl *Controller) ListTopicHandler(c *gin.Context) {
	id, ok := ctrl.identity(c)
	if !ok {
		return
	}

	var user *model.User
	if id != nil {
		u, err := ctrl.userSvc.Get(c.Request.Context(), id.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		user = u
	}

	cards, err := ctrl.listSvc.Topic(c.Request.Context(), c.Param("topic"), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// ListMineHandler returns the caller's own questions, drafts included.
func (ctrl *Controller) ListMineHandler(c *gin.Context) {
	id, ok := ctrl.requireIdentity(c)
	if !ok {
		return
	}

	cards, err := ctrl.listSvc.Mine(c.Request.Context(), id.EmailHash)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// parseAnswers reads the answers parameter. Present but empty means the
// question was skipped; absent means it was merely viewed.
func parseAnswers(c *gin.Context) ([]int, bool) {
	raw, present := c.GetQuery("answers")
	if !present {
		return nil, false
	}

	answers := []int{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			continue
		}
		answers = append(answers, n)
	}
	return answers, true
}

func parseFormat(s string) (model.QuestionFormat, bool) {
	switch s {
	case "markdown":
		return model.FormatMarkdownFull, true
	case "htmlFull":
		return model.FormatHTMLFull, true
	case "htmlShort":
		return model.FormatHTMLShort, true
	default:
		return 0, false
	}
}

func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func email(id *auth.Identity) string {
	if id == nil {
		return ""
	}
	return id.Email
}

func hash(id *auth.Identity) string {
	if id == nil {
		return ""
	}
	return id.EmailHash
}
