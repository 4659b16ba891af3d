package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "tariff-workers/internal/common/errors"
	"tariff-workers/internal/models"
)

// ElasticsearchStore answers description searches from an index whose
// documents mirror TariffCodeRecord. It does not serve lookups by code.
type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
	limit  int
}

func NewElasticsearchStore(client *elasticsearch.Client, index string, limit int) *ElasticsearchStore {
	if index == "" {
		index = "tariff-codes"
	}
	if limit <= 0 {
		limit = 50
	}
	return &ElasticsearchStore{client: client, index: index, limit: limit}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.TariffCodeRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchStore) Search(ctx context.Context, term, categoryHint string) ([]models.TariffCodeRecord, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	body, err := json.Marshal(buildDescriptionQuery(term, categoryHint, s.limit))
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("elasticsearch.search", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewStoreUnavailableError("elasticsearch.search", fmt.Errorf("search failed: %s", res.Status()))
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, apperrors.NewStoreUnavailableError("elasticsearch.search", err)
	}

	out := make([]models.TariffCodeRecord, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		r := hit.Source
		if r.Code == "" {
			continue
		}
		r.Source = "elasticsearch"
		out = append(out, r)
	}
	return out, nil
}

// buildDescriptionQuery matches term anywhere in description.keyword, ignoring
// case, so hits agree with the ILIKE semantics of the SQL store.
func buildDescriptionQuery(term, categoryHint string, size int) map[string]interface{} {
	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"wildcard": map[string]interface{}{
					"description.keyword": map[string]interface{}{
						"value":            "*" + escapeWildcard(term) + "*",
						"case_insensitive": true,
					},
				},
			},
		},
	}
	if categoryHint != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{
					"category": map[string]interface{}{
						"value":            categoryHint,
						"case_insensitive": true,
					},
				},
			},
		}
	}

	return map[string]interface{}{
		"size":  size,
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  []interface{}{map[string]interface{}{"code": "asc"}},
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}
