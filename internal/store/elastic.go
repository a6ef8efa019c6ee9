// internal/store/elastic.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"compost-match-engine/internal/common/database"
	engineerrors "compost-match-engine/internal/common/errors"
	"compost-match-engine/internal/common/logger"
	"compost-match-engine/internal/models"
)

var ErrMissingIndex = errors.New("index name is required")

// directoryPageSize bounds one scroll-free page of the composter directory.
const directoryPageSize = 500

// ElasticDirectory serves composter enumeration from an Elasticsearch index
// instead of Postgres. Listing lookups and load counts still come from the
// relational store, so it wraps one and overrides ActiveComposters.
type ElasticDirectory struct {
	*PostgresStore

	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewElasticDirectory(pg *PostgresStore, es *database.ElasticsearchClient, index string, log logger.Logger) *ElasticDirectory {
	return &ElasticDirectory{
		PostgresStore: pg,
		es:            es,
		index:         index,
		logger:        log,
	}
}

// composterDoc mirrors the directory index mapping.
type composterDoc struct {
	ID        int64    `json:"id"`
	Email     string   `json:"email"`
	Location  string   `json:"location"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// BuildActiveCompostersQuery builds the search request for active composter
// accounts. Kept separate from execution so the query shape is testable
// without a cluster.
func BuildActiveCompostersQuery(index string, from, size int) (*esapi.SearchRequest, error) {
	if index == "" {
		return nil, ErrMissingIndex
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"role": "composter"},
					},
					map[string]interface{}{
						"term": map[string]interface{}{"is_active": true},
					},
				},
			},
		},
		"sort": []map[string]interface{}{{"id": "asc"}},
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(string(body)),
		From:  &from,
		Size:  &size,
	}

	return &req, nil
}

// ActiveComposters pages through the directory index and converts each hit
// into a composter snapshot.
func (d *ElasticDirectory) ActiveComposters(ctx context.Context) ([]models.Composter, error) {
	var composters []models.Composter

	for from := 0; ; from += directoryPageSize {
		docs, err := d.searchPage(ctx, from, directoryPageSize)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			composters = append(composters, docToComposter(doc))
		}
		if len(docs) < directoryPageSize {
			break
		}
	}

	return composters, nil
}

func (d *ElasticDirectory) searchPage(ctx context.Context, from, size int) ([]composterDoc, error) {
	req, err := BuildActiveCompostersQuery(d.index, from, size)
	if err != nil {
		return nil, engineerrors.NewDirectorySearchError(err)
	}

	res, err := req.Do(ctx, d.es.Client)
	if err != nil {
		return nil, engineerrors.NewDirectorySearchError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, engineerrors.NewDirectorySearchError(errors.New(res.String()))
	}

	var payload struct {
		Hits struct {
			Hits []struct {
				Source composterDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, engineerrors.NewDirectorySearchError(err)
	}

	docs := make([]composterDoc, 0, len(payload.Hits.Hits))
	for _, hit := range payload.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

func docToComposter(doc composterDoc) models.Composter {
	c := models.Composter{
		ID:     doc.ID,
		Email:  doc.Email,
		Active: true,
		Location: models.Location{
			Address: doc.Location,
			City:    doc.City,
			State:   doc.State,
			Country: doc.Country,
			Label:   doc.Location,
		},
	}
	if doc.Latitude != nil && doc.Longitude != nil {
		c.Location.SetCoordinates(*doc.Latitude, *doc.Longitude)
	}
	return c
}
