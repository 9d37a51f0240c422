// Package search mirrors submitted applications into Elasticsearch for
// back-office search. Indexing is strictly best effort: the application
// record in PostgreSQL is authoritative, and an indexing failure is logged
// and swallowed so it never affects the submission flow.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"eta-service/internal/common/logger"
	"eta-service/internal/common/metrics"
	"eta-service/internal/models"
)

type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

// NewIndexer returns an indexer, or nil when search is disabled. A nil
// *Indexer is safe to call.
func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	if client == nil {
		return nil
	}
	return &Indexer{client: client, index: index, logger: log}
}

// document is the searchable projection of an application. Photo URLs and
// the free-text address lines are deliberately left out.
type document struct {
	ReferenceNumber string `json:"reference_number"`
	Status          string `json:"status"`
	PaymentIntentID string `json:"payment_intent_id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	PassportNumber  string `json:"passport_number"`
	PassportCountry string `json:"passport_country"`
	Nationality     string `json:"nationality"`
	SubmittedAt     string `json:"submitted_at"`
}

// Index writes the application document keyed by its reference number. All
// failures are logged and swallowed; the caller never sees an error.
func (i *Indexer) Index(ctx context.Context, app *models.SubmittedApplication) {
	if i == nil {
		return
	}

	doc := document{
		ReferenceNumber: app.ReferenceNumber,
		Status:          string(app.Status),
		PaymentIntentID: app.PaymentIntentID,
		FirstName:       app.FirstName,
		LastName:        app.LastName,
		Email:           app.Email,
		PassportNumber:  app.PassportNumber,
		PassportCountry: app.PassportCountry,
		Nationality:     app.Nationality,
		SubmittedAt:     app.SubmittedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		i.softFail(app.ReferenceNumber, err)
		return
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: app.ReferenceNumber,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		i.softFail(app.ReferenceNumber, err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		i.softFail(app.ReferenceNumber, fmt.Errorf("index response: %s", res.Status()))
		return
	}

	i.logger.Debug("Indexed application", map[string]interface{}{
		"reference_number": app.ReferenceNumber,
		"index":            i.index,
	})
}

func (i *Indexer) softFail(referenceNumber string, err error) {
	metrics.SoftFailures.WithLabelValues("search_index").Inc()
	i.logger.WithError(err).Warn("Application indexing failed, continuing", map[string]interface{}{
		"reference_number": referenceNumber,
	})
}
