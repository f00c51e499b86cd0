package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// itemAPI is the subset of *dynamodb.Client used by PrefsRepo.
type itemAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// PrefsRepo stores one session record as a single item of the
// session_records table. Every record key is a string attribute.
type PrefsRepo struct {
	client    itemAPI
	tableName string
	recordID  string
}

func NewPrefsRepo(client *dynamodb.Client, tableName, recordID string) *PrefsRepo {
	return &PrefsRepo{client: client, tableName: tableName, recordID: recordID}
}

// Load returns the record fields, or an empty map when the item does not exist.
func (r *PrefsRepo) Load(ctx context.Context) (map[string]string, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldRecordID, r.recordID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get session record: %w", err)
	}
	fields := map[string]string{}
	if out.Item == nil {
		return fields, nil
	}
	if err := attributevalue.UnmarshalMap(out.Item, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal session record: %w", err)
	}
	delete(fields, fieldRecordID)
	delete(fields, fieldUpdatedAt)
	return fields, nil
}

// Update applies set and remove in one UpdateItem call, creating the item if needed.
func (r *PrefsRepo) Update(ctx context.Context, set map[string]string, remove []string) error {
	updates := make(map[string]interface{}, len(set)+1)
	for k, v := range set {
		updates[k] = v
	}
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates, remove)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldRecordID, r.recordID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		return fmt.Errorf("update session record: %w", err)
	}
	return nil
}

// Clear deletes the whole item.
func (r *PrefsRepo) Clear(ctx context.Context) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldRecordID, r.recordID),
	})
	if err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}
