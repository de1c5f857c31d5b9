package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tourdesk/internal/config"
	"tourdesk/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

// ElasticsearchClient представляет клиент для полнотекстового поиска экскурсий
type ElasticsearchClient struct {
	client *elasticsearch.Client
	config config.ElasticsearchConfig
}

// activityDocument документ индекса; организация хранится как keyword для фильтра
type activityDocument struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	PaymentType    string    `json:"payment_type"`
	Capacity       int       `json:"capacity"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewElasticsearchClient создает новый клиент Elasticsearch
func NewElasticsearchClient(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &ElasticsearchClient{
		client: es,
		config: cfg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := client.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

// ensureIndex создает индекс если он не существует
func (c *ElasticsearchClient) ensureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{c.config.Index}}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   c.config.Shards,
			"number_of_replicas": c.config.Replicas,
			"analysis": map[string]interface{}{
				"analyzer": map[string]interface{}{
					"activity_analyzer": map[string]interface{}{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding"},
					},
				},
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":              map[string]interface{}{"type": "keyword"},
				"organization_id": map[string]interface{}{"type": "keyword"},
				"name": map[string]interface{}{
					"type":     "text",
					"analyzer": "activity_analyzer",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{
							"type":         "keyword",
							"ignore_above": 256,
						},
					},
				},
				"description":  map[string]interface{}{"type": "text", "analyzer": "activity_analyzer"},
				"payment_type": map[string]interface{}{"type": "keyword"},
				"capacity":     map[string]interface{}{"type": "integer"},
				"updated_at":   map[string]interface{}{"type": "date"},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  bytes.NewReader(body),
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.config.Index)
	return nil
}

// IndexActivity индексирует экскурсию
func (c *ElasticsearchClient) IndexActivity(ctx context.Context, a *models.Activity) error {
	doc := activityDocument{
		ID:             a.ID.String(),
		OrganizationID: a.OrganizationID.String(),
		Name:           a.Name,
		PaymentType:    string(a.PaymentType),
		Capacity:       a.Capacity,
		UpdatedAt:      a.UpdatedAt,
	}
	if a.Description != nil {
		doc.Description = *a.Description
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	res, err := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
		Refresh:    c.config.Refresh,
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index activity: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}
	return nil
}

// DeleteActivity удаляет экскурсию из индекса; отсутствие документа не ошибка
func (c *ElasticsearchClient) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	res, err := esapi.DeleteRequest{
		Index:      c.config.Index,
		DocumentID: id.String(),
		Refresh:    c.config.Refresh,
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete error: %s", res.String())
	}
	return nil
}

// SearchActivities возвращает id экскурсий организации в порядке релевантности
func (c *ElasticsearchClient) SearchActivities(ctx context.Context, orgID uuid.UUID, text string, page, pageSize int) ([]uuid.UUID, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	from := 0
	if page > 1 {
		from = (page - 1) * pageSize
	}

	request := map[string]interface{}{
		"query":   buildQuery(orgID, text),
		"sort":    buildSort(text),
		"from":    from,
		"size":    pageSize,
		"_source": []string{"id"},
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source activityDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		id, err := uuid.Parse(hit.Source.ID)
		if err != nil {
			slog.Warn("Skipping search hit with bad id", "id", hit.Source.ID)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// buildQuery строит поисковый запрос, всегда ограниченный организацией
func buildQuery(orgID uuid.UUID, text string) map[string]interface{} {
	query := map[string]interface{}{
		"filter": []map[string]interface{}{
			{"term": map[string]interface{}{"organization_id": orgID.String()}},
		},
	}

	if text = strings.TrimSpace(text); text != "" {
		query["must"] = []map[string]interface{}{
			{
				"multi_match": map[string]interface{}{
					"query":     text,
					"fields":    []string{"name^2", "description"},
					"fuzziness": "AUTO",
				},
			},
		}
	}

	return map[string]interface{}{"bool": query}
}

// buildSort строит сортировку: по релевантности при поиске, иначе по имени
func buildSort(text string) []map[string]interface{} {
	if strings.TrimSpace(text) != "" {
		return []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"name.keyword": map[string]interface{}{"order": "asc"}},
		}
	}
	return []map[string]interface{}{
		{"name.keyword": map[string]interface{}{"order": "asc"}},
	}
}

// HealthCheck проверяет состояние Elasticsearch
func (c *ElasticsearchClient) HealthCheck(ctx context.Context) error {
	res, err := esapi.ClusterHealthRequest{
		WaitForStatus: "yellow",
		Timeout:       10 * time.Second,
	}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("health check error: %s", res.String())
	}
	return nil
}
