package repository

import (
	"context"
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

// userSortKey is the constant SK of the users table. The table is keyed
// by email alone; the SK exists for future record kinds per user.
const userSortKey = "sub"

type UserRepository interface {
	// Get returns the user's subscription and full interaction history,
	// or ErrNotFound.
	Get(ctx context.Context, email string) (*model.User, error)
	// UpdateSubscription replaces the topic list and unsubscribe key
	// and returns the updated record.
	UpdateSubscription(ctx context.Context, email string, topics []string, unsubscribe string) (*model.User, error)
	// AppendHistory adds interaction tokens to the user's history set.
	AppendHistory(ctx context.Context, email string, entries []model.AskedQuestion) error
}

type userRepository struct {
	db    *dynamodb.Client
	table string
}

func NewUserRepository(db *dynamodb.Client, cfg *config.Config) UserRepository {
	return &userRepository{db: db, table: cfg.Tables.Users}
}

func (r *userRepository) Get(ctx context.Context, email string) (*model.User, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       userKey(email),
	})
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	return userFromItem(email, out.Item), nil
}

func (r *userRepository) UpdateSubscription(ctx context.Context, email string, topics []string, unsubscribe string) (*model.User, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	// string sets cannot be empty, so no topics is stored as NULL
	var topicsValue types.AttributeValue
	if len(topics) == 0 {
		topicsValue = &types.AttributeValueMemberNULL{Value: true}
	} else {
		topicsValue = &types.AttributeValueMemberSS{Value: topics}
	}

	out, err := r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.table),
		Key:              userKey(email),
		UpdateExpression: aws.String("SET topics = :topics, unsubscribe = :unsubscribe, updated = :updated"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":topics":      topicsValue,
			":unsubscribe": &types.AttributeValueMemberS{Value: unsubscribe},
			":updated":     &types.AttributeValueMemberS{Value: now},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("updating subscription: %w", err)
	}
	return userFromItem(email, out.Attributes), nil
}

func (r *userRepository) AppendHistory(ctx context.Context, email string, entries []model.AskedQuestion) error {
	if len(entries) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(entries))
	for _, e := range entries {
		tokens = append(tokens, e.Encode())
	}

	update := expression.Add(expression.Name("questions"), expression.Value(&types.AttributeValueMemberSS{Value: tokens}))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("building history expression: %w", err)
	}

	_, err = r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       userKey(email),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	return nil
}

func userKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"email": &types.AttributeValueMemberS{Value: email},
		"sort":  &types.AttributeValueMemberS{Value: userSortKey},
	}
}

func userFromItem(email string, item map[string]types.AttributeValue) *model.User {
	user := &model.User{Email: email, Topics: []string{}}

	if v, ok := item["topics"].(*types.AttributeValueMemberSS); ok {
		user.Topics = model.FilterValidTopics(v.Value)
	}
	if v, ok := item["unsubscribe"].(*types.AttributeValueMemberS); ok {
		user.Unsubscribe = v.Value
	}
	if v, ok := item["updated"].(*types.AttributeValueMemberS); ok {
		if ts, err := time.Parse(time.RFC3339, v.Value); err == nil {
			ts = ts.UTC()
			user.Updated = &ts
		}
	}

	if v, ok := item["questions"].(*types.AttributeValueMemberSS); ok {
		user.Questions = make([]model.AskedQuestion, 0, len(v.Value))
		for _, token := range v.Value {
			q, err := model.ParseAskedQuestion(token)
			if err != nil {
				// bad tokens are dropped so one write bug cannot brick
				// the whole account
				log.Error().Str("token", token).Err(err).Msg("Skipping unreadable history entry")
				continue
			}
			user.Questions = append(user.Questions, q)
		}
	}

	return user
}
