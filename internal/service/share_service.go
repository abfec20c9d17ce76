package service

import (
	"context"
	"fmt"
	"html"
	"io"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/quizbite/quizbite/config"
	"github.com/quizbite/quizbite/internal/model"
)

// shared-page tag patterns replaced with the shared topic's caption
var (
	titleTag         = regexp.MustCompile(`<title>[^<]*</title>`)
	ogTitleMeta      = regexp.MustCompile(`(<meta[^>]+property="og:title"[^>]+content=")[^"]*(")`)
	twitterTitleMeta = regexp.MustCompile(`(<meta[^>]+name="twitter:title"[^>]+content=")[^"]*(")`)
)

type ShareService interface {
	// Page returns the frontend's index page with its title tags
	// rewritten to the shared topic, so link previews name the topic
	// instead of the generic site description. An unknown topic
	// returns the page untouched.
	Page(ctx context.Context, topic string) ([]byte, error)
}

type shareService struct {
	s3     *s3.Client
	bucket string
	key    string
}

func NewShareService(s3c *s3.Client, cfg *config.Config) ShareService {
	return &shareService{s3: s3c, bucket: cfg.Share.Bucket, key: cfg.Share.Key}
}

func (s *shareService) Page(ctx context.Context, topic string) ([]byte, error) {
	out, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching share page: %w", err)
	}
	defer out.Body.Close()

	page, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading share page: %w", err)
	}

	return rewriteTitles(page, topic), nil
}

// rewriteTitles replaces the page's title and link-preview meta tags
// with a caption naming the topic. Unknown topics leave the page as is.
func rewriteTitles(page []byte, topic string) []byte {
	name := model.TopicName(topic)
	if name == "" {
		log.Info().Str("topic", topic).Msg("Unknown topic on share page, serving as is")
		return page
	}

	caption := html.EscapeString(name + ": something I learned today")
	page = titleTag.ReplaceAll(page, []byte("<title>"+caption+"</title>"))
	page = ogTitleMeta.ReplaceAll(page, []byte("${1}"+caption+"${2}"))
	page = twitterTitleMeta.ReplaceAll(page, []byte("${1}"+caption+"${2}"))
	return page
}
