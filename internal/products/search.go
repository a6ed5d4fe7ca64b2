package products

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	apperrors "optical-franchise/internal/common/errors"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	SourceElasticsearch = "elasticsearch"
	SourcePostgres      = "postgres"

	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

var ErrIndexUnavailable = errors.New("search index unavailable")

// IndexMapping is applied when the catalog index is first created.
const IndexMapping = `{
	"settings": {"number_of_shards": 1},
	"mappings": {
		"properties": {
			"id": {"type": "long"},
			"sku": {"type": "keyword"},
			"name": {"type": "text"},
			"brand": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"category": {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"description": {"type": "text"},
			"priceCents": {"type": "long"},
			"active": {"type": "boolean"}
		}
	}
}`

// Index is the catalog search backend.
type Index interface {
	Search(ctx context.Context, term string, limit int) ([]Product, int64, error)
	Put(ctx context.Context, p *Product) error
	Remove(ctx context.Context, id int64) error
}

type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticIndex(client *elasticsearch.Client, index string) *ElasticIndex {
	if index == "" {
		index = "products"
	}
	return &ElasticIndex{client: client, index: index}
}

// buildSearchQuery matches the term over the text fields, boosting the name,
// and keeps inactive products out of the results.
func buildSearchQuery(term string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":     term,
							"fields":    []string{"name^3", "brand^2", "category", "description"},
							"type":      "best_fields",
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"active": true}},
				},
			},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search failures come back as SEARCH_QUERY_FAILED errors naming the index.
func (e *ElasticIndex) Search(ctx context.Context, term string, limit int) ([]Product, int64, error) {
	body, err := json.Marshal(buildSearchQuery(term))
	if err != nil {
		return nil, 0, apperrors.NewSearchQueryFailedError(e.index, err)
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  bytes.NewReader(body),
		Size:  &limit,
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, 0, apperrors.NewSearchQueryFailedError(e.index, fmt.Errorf("%w: %v", ErrIndexUnavailable, err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, apperrors.NewSearchQueryFailedError(e.index, errors.New(res.String()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, apperrors.NewSearchQueryFailedError(e.index, fmt.Errorf("decode search response: %w", err))
	}

	products := make([]Product, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		products = append(products, hit.Source)
	}
	return products, parsed.Hits.Total.Value, nil
}

func (e *ElasticIndex) Put(ctx context.Context, p *Product) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: strconv.FormatInt(p.ID, 10),
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index product %d: %s", p.ID, res.String())
	}
	return nil
}

func (e *ElasticIndex) Remove(ctx context.Context, id int64) error {
	req := esapi.DeleteRequest{
		Index:      e.index,
		DocumentID: strconv.FormatInt(id, 10),
	}

	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	defer res.Body.Close()

	// A missing document is already the desired state.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("remove product %d: %s", id, res.String())
	}
	return nil
}

func clampLimit(limit int) int {
	if limit < 1 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}
