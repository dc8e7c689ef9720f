// Package search mirrors scored applicants into Elasticsearch for the admin
// applicant search.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"applicant-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

type Indexer struct {
	es    *elasticsearch.Client
	index string
}

func NewIndexer(es *elasticsearch.Client, index string) *Indexer {
	return &Indexer{es: es, index: index}
}

func (i *Indexer) Name() string { return "search" }

type document struct {
	TenantID     string  `json:"tenantId"`
	ApplicantID  string  `json:"applicantId"`
	Score        int     `json:"score"`
	ManualScore  int     `json:"manualScore"`
	AIScoreTotal float64 `json:"aiScoreTotal"`
	Status       string  `json:"status"`
	Name         string  `json:"name,omitempty"`
	Email        string  `json:"email,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	ProcessedAt  string  `json:"processedAt"`
}

// DocumentID is stable per applicant so re-indexing overwrites.
func DocumentID(tenantID, applicantID string) string {
	return tenantID + "_" + applicantID
}

// Record indexes the outcome under a per-applicant document id.
func (i *Indexer) Record(ctx context.Context, o *models.ScoringOutcome) error {
	body, err := json.Marshal(document{
		TenantID:     o.TenantID,
		ApplicantID:  o.ApplicantID,
		Score:        o.Score,
		ManualScore:  o.ManualScore,
		AIScoreTotal: o.AIScoreTotal,
		Status:       o.Status,
		Name:         o.Contact.Name,
		Email:        o.Contact.Email,
		Phone:        o.Contact.Phone,
		ProcessedAt:  o.ProcessedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal search document: %w", err)
	}

	res, err := i.es.Index(
		i.index,
		bytes.NewReader(body),
		i.es.Index.WithDocumentID(DocumentID(o.TenantID, o.ApplicantID)),
		i.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index applicant: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("index applicant: %s: %s", res.Status(), string(msg))
	}
	return nil
}
