package store

import (
	"context"
	"errors"
	"fmt"

	"applicant-workers/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ApplicantRepo reads applicants and applies the final score update.
type ApplicantRepo struct {
	coll *mongo.Collection
}

func NewApplicantRepo(coll *mongo.Collection) *ApplicantRepo {
	return &ApplicantRepo{coll: coll}
}

func applicantFilter(tenantID, applicantID string) bson.M {
	return bson.M{"_id": idFilter(applicantID), "tenantId": tenantID}
}

// Get loads one applicant. Answers are normalized to plain maps and slices.
func (r *ApplicantRepo) Get(ctx context.Context, tenantID, applicantID string) (*models.Applicant, error) {
	var applicant models.Applicant
	err := r.coll.FindOne(ctx, applicantFilter(tenantID, applicantID)).Decode(&applicant)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrApplicantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find applicant: %w", err)
	}

	applicant.ID = applicantID
	applicant.TenantID = tenantID
	if applicant.Answers != nil {
		applicant.Answers = normalizeMap(applicant.Answers)
	}
	return &applicant, nil
}

// scoreUpdateDoc builds the $set document. It names only the fields the
// pipeline owns.
func scoreUpdateDoc(update models.ScoreUpdate) bson.M {
	set := bson.M{}
	for k, v := range update.Fields() {
		set[k] = v
	}
	return bson.M{"$set": set}
}

// ApplyScore writes the whole result in one update that only matches an
// applicant without processedAt. ErrAlreadyProcessed means another run won.
func (r *ApplicantRepo) ApplyScore(ctx context.Context, tenantID, applicantID string, update models.ScoreUpdate) error {
	filter := applicantFilter(tenantID, applicantID)
	filter["processedAt"] = nil

	res, err := r.coll.UpdateOne(ctx, filter, scoreUpdateDoc(update))
	if err != nil {
		return fmt.Errorf("update applicant: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	var existing bson.M
	err = r.coll.FindOne(ctx, applicantFilter(tenantID, applicantID),
		options.FindOne().SetProjection(bson.M{"processedAt": 1})).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrApplicantNotFound
	}
	if err != nil {
		return fmt.Errorf("check applicant after update: %w", err)
	}
	return ErrAlreadyProcessed
}
