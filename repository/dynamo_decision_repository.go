package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SujaySAK777/StreamIQ/models"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DynamoAPI is the subset of *dynamodb.Client used by the decision store.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDecisionRepository stores audit rows in a DynamoDB table keyed by
// `decision_id` (string).
type DynamoDecisionRepository struct {
	client DynamoAPI
	table  string
}

// NewDynamoDecisionRepository creates a new DynamoDecisionRepository.
func NewDynamoDecisionRepository(client DynamoAPI, table string) *DynamoDecisionRepository {
	return &DynamoDecisionRepository{client: client, table: table}
}

type ddbDecision struct {
	DecisionID      string  `dynamodbav:"decision_id"`
	ProductID       string  `dynamodbav:"product_id"`
	InputEvent      string  `dynamodbav:"input_event"`
	UpliftScore     float64 `dynamodbav:"uplift_score"`
	Candidates      string  `dynamodbav:"candidates"`
	ChosenCandidate string  `dynamodbav:"chosen_candidate,omitempty"`
	Presentation    string  `dynamodbav:"presentation,omitempty"`
	Outcome         string  `dynamodbav:"outcome"`
	CreatedAt       string  `dynamodbav:"created_at"`
}

func toDDB(d *models.PromotionDecision) ddbDecision {
	return ddbDecision{
		DecisionID:      d.DecisionID.String(),
		ProductID:       d.ProductID,
		InputEvent:      string(d.InputEvent),
		UpliftScore:     d.UpliftScore,
		Candidates:      string(d.Candidates),
		ChosenCandidate: string(d.ChosenCandidate),
		Presentation:    string(d.Presentation),
		Outcome:         string(d.Outcome),
		CreatedAt:       d.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (dd ddbDecision) toModel() models.PromotionDecision {
	d := models.PromotionDecision{
		ProductID:   dd.ProductID,
		UpliftScore: dd.UpliftScore,
		Outcome:     models.Outcome(dd.Outcome),
	}
	d.DecisionID, _ = uuid.Parse(dd.DecisionID)
	d.InputEvent = jsonOrNil(dd.InputEvent)
	d.Candidates = jsonOrNil(dd.Candidates)
	d.ChosenCandidate = jsonOrNil(dd.ChosenCandidate)
	d.Presentation = jsonOrNil(dd.Presentation)
	if t, err := time.Parse(time.RFC3339Nano, dd.CreatedAt); err == nil {
		d.CreatedAt = t
	}
	return d
}

func jsonOrNil(s string) datatypes.JSON {
	if s == "" {
		return nil
	}
	return datatypes.JSON(s)
}

// Record writes one audit item.
func (r *DynamoDecisionRepository) Record(ctx context.Context, decision *models.PromotionDecision) error {
	item, err := attributevalue.MarshalMap(toDDB(decision))
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &r.table, Item: item}); err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

// FindByID reads one audit item.
func (r *DynamoDecisionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.PromotionDecision, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"decision_id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &r.table, Key: key})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrDecisionNotFound
	}
	var dd ddbDecision
	if err := attributevalue.UnmarshalMap(out.Item, &dd); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	d := dd.toModel()
	return &d, nil
}

// FindAll scans the whole table and pages the rows newest first.
func (r *DynamoDecisionRepository) FindAll(ctx context.Context, page, limit int) ([]models.PromotionDecision, int64, error) {
	var all []models.PromotionDecision
	input := &dynamodb.ScanInput{TableName: &r.table}
	for {
		out, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, 0, fmt.Errorf("dynamodb Scan failed: %w", err)
		}
		var items []ddbDecision
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, 0, fmt.Errorf("unmarshal items: %w", err)
		}
		for _, it := range items {
			all = append(all, it.toModel())
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []models.PromotionDecision{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}
