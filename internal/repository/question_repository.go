package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/quizbite/quizbite/config"
	"github.com/quizbite/quizbite/internal/model"
)

// GSI names on the questions table.
const (
	indexTopicStage = "topic-stage"
	indexAuthor     = "author"
)

// QuestionRecord is one row of the questions table. Details holds the
// full question JSON; the other attributes are projections for listing
// so list queries never have to decode the payload.
type QuestionRecord struct {
	Topic   string
	Qid     string
	Details string
	Title   string
	Updated string
	Stage   string
	Author  string
	Stats   model.Stats
}

type QuestionRepository interface {
	// QueryByQid returns up to limit records with qid on the cmp side
	// of the given one, nearest first. cmp is "<" or ">=".
	QueryByQid(ctx context.Context, topic, qid, cmp string, limit int32) ([]QuestionRecord, error)
	// Get returns one record or ErrNotFound.
	Get(ctx context.Context, topic, qid string) (*QuestionRecord, error)
	// Save upserts the record with an ownership check: if the stored row
	// already has a different author, ErrAuthorMismatch is returned.
	Save(ctx context.Context, rec QuestionRecord) error
	// IncrementStat adds 1 to one of the correct/incorrect/skipped counters.
	IncrementStat(ctx context.Context, topic, qid, stat string) error
	// UpdateStage flips the record between draft and published, keeping
	// the details blob in agreement with the stage attribute.
	UpdateStage(ctx context.Context, topic, qid string, stage model.PublishStage, details string) error
	// ListPublishedByTopic returns the listing projection of all
	// published records in one topic.
	ListPublishedByTopic(ctx context.Context, topic string) ([]QuestionRecord, error)
	// ListByAuthor returns the listing projection of all records,
	// published or not, owned by the given author hash.
	ListByAuthor(ctx context.Context, author string) ([]QuestionRecord, error)
}

type questionRepository struct {
	db    *dynamodb.Client
	table string
}

func NewQuestionRepository(db *dynamodb.Client, cfg *config.Config) QuestionRepository {
	return &questionRepository{db: db, table: cfg.Tables.Questions}
}

func (r *questionRepository) QueryByQid(ctx context.Context, topic, qid, cmp string, limit int32) ([]QuestionRecord, error) {
	keyCond := expression.Key("topic").Equal(expression.Value(topic))
	if cmp == "<" {
		keyCond = keyCond.And(expression.Key("qid").LessThan(expression.Value(qid)))
	} else {
		keyCond = keyCond.And(expression.Key("qid").GreaterThanEqual(expression.Value(qid)))
	}

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("building query expression: %w", err)
	}

	// records below the pivot are queried in reverse so the page holds
	// the nearest neighbours in both directions
	out, err := r.db.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(limit),
		ScanIndexForward:          aws.Bool(cmp != "<"),
	})
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}

	records := make([]QuestionRecord, 0, len(out.Items))
	for _, item := range out.Items {
		rec, err := recordFromItem(item)
		if err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("Skipping unreadable question row")
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (r *questionRepository) Get(ctx context.Context, topic, qid string) (*QuestionRecord, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       questionKey(topic, qid),
	})
	if err != nil {
		return nil, fmt.Errorf("getting question %s/%s: %w", topic, qid, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	return recordFromItem(out.Item)
}

func (r *questionRepository) Save(ctx context.Context, rec QuestionRecord) error {
	// the author attribute is written once and then only ever compared:
	// a different caller updating the record trips the condition
	update := expression.
		Set(expression.Name("author"), expression.IfNotExists(expression.Name("author"), expression.Value(rec.Author))).
		Set(expression.Name("details"), expression.Value(rec.Details)).
		Set(expression.Name("title"), expression.Value(rec.Title)).
		Set(expression.Name("updated"), expression.Value(rec.Updated)).
		Set(expression.Name("stage"), expression.Value(rec.Stage))

	cond := expression.Name("author").Equal(expression.Value(rec.Author)).
		Or(expression.AttributeNotExists(expression.Name("author")))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("building save expression: %w", err)
	}

	_, err = r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       questionKey(rec.Topic, rec.Qid),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrAuthorMismatch
		}
		return fmt.Errorf("saving question %s/%s: %w", rec.Topic, rec.Qid, err)
	}
	return nil
}

func (r *questionRepository) IncrementStat(ctx context.Context, topic, qid, stat string) error {
	update := expression.Add(expression.Name(stat), expression.Value(1))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("building counter expression: %w", err)
	}

	_, err = r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       questionKey(topic, qid),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return fmt.Errorf("incrementing %s on %s/%s: %w", stat, topic, qid, err)
	}
	return nil
}

func (r *questionRepository) UpdateStage(ctx context.Context, topic, qid string, stage model.PublishStage, details string) error {
	update := expression.
		Set(expression.Name("stage"), expression.Value(string(stage))).
		Set(expression.Name("details"), expression.Value(details)).
		Set(expression.Name("updated"), expression.Value(time.Now().UTC().Format(time.RFC3339)))
	cond := expression.AttributeExists(expression.Name("author"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("building stage expression: %w", err)
	}

	_, err = r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       questionKey(topic, qid),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrNotFound
		}
		return fmt.Errorf("updating stage of %s/%s: %w", topic, qid, err)
	}
	return nil
}

func (r *questionRepository) ListPublishedByTopic(ctx context.Context, topic string) ([]QuestionRecord, error) {
	keyCond := expression.Key("topic").Equal(expression.Value(topic)).
		And(expression.Key("stage").Equal(expression.Value(string(model.StagePublished))))
	return r.queryIndex(ctx, indexTopicStage, keyCond)
}

func (r *questionRepository) ListByAuthor(ctx context.Context, author string) ([]QuestionRecord, error) {
	keyCond := expression.Key("author").Equal(expression.Value(author))
	return r.queryIndex(ctx, indexAuthor, keyCond)
}

func (r *questionRepository) queryIndex(ctx context.Context, index string, keyCond expression.KeyConditionBuilder) ([]QuestionRecord, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("building index expression: %w", err)
	}

	var records []QuestionRecord
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.db.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.table),
			IndexName:                 aws.String(index),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("querying %s index: %w", index, err)
		}

		for _, item := range out.Items {
			rec, err := recordFromItem(item)
			if err != nil {
				log.Error().Err(err).Str("index", index).Msg("Skipping unreadable question row")
				continue
			}
			records = append(records, *rec)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return records, nil
}

func questionKey(topic, qid string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"topic": &types.AttributeValueMemberS{Value: topic},
		"qid":   &types.AttributeValueMemberS{Value: qid},
	}
}

func recordFromItem(item map[string]types.AttributeValue) (*QuestionRecord, error) {
	rec := &QuestionRecord{}
	rec.Topic = stringAttr(item, "topic")
	rec.Qid = stringAttr(item, "qid")
	if rec.Topic == "" || rec.Qid == "" {
		return nil, fmt.Errorf("%w: missing key attributes", ErrCorruptRecord)
	}
	rec.Details = stringAttr(item, "details")
	rec.Title = stringAttr(item, "title")
	rec.Updated = stringAttr(item, "updated")
	rec.Stage = stringAttr(item, "stage")
	rec.Author = stringAttr(item, "author")
	rec.Stats = model.Stats{
		Correct:   numberAttr(item, "correct"),
		Incorrect: numberAttr(item, "incorrect"),
		Skipped:   numberAttr(item, "skipped"),
	}
	return rec, nil
}

// LastUpdated parses the updated attribute, falling back to nil when it
// is absent or unreadable. Old rows predate the attribute.
func (rec *QuestionRecord) LastUpdated() *time.Time {
	if rec.Updated == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, rec.Updated)
	if err != nil {
		log.Warn().Str("qid", rec.Qid).Str("updated", rec.Updated).Msg("Unreadable update timestamp")
		return nil
	}
	ts = ts.UTC()
	return &ts
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func numberAttr(item map[string]types.AttributeValue, name string) uint32 {
	v, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	var n uint32
	if _, err := fmt.Sscanf(v.Value, "%d", &n); err != nil {
		return 0
	}
	return n
}
