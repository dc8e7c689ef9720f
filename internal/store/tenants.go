package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TenantRepo reads per-tenant scoring settings.
type TenantRepo struct {
	coll *mongo.Collection
}

func NewTenantRepo(coll *mongo.Collection) *TenantRepo {
	return &TenantRepo{coll: coll}
}

// ScoreThreshold returns nil when the tenant or its threshold is missing.
func (r *TenantRepo) ScoreThreshold(ctx context.Context, tenantID string) (*int, error) {
	var doc struct {
		ScoreThreshold *float64 `bson:"scoreThreshold"`
	}
	err := r.coll.FindOne(ctx, bson.M{"_id": idFilter(tenantID)},
		options.FindOne().SetProjection(bson.M{"scoreThreshold": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tenant: %w", err)
	}
	if doc.ScoreThreshold == nil {
		return nil, nil
	}
	threshold := int(*doc.ScoreThreshold)
	return &threshold, nil
}
