package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tourdesk/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQueryAlwaysFiltersByOrganization(t *testing.T) {
	org := uuid.New()

	q := buildQuery(org, "  ")
	boolQuery := q["bool"].(map[string]interface{})
	assert.NotContains(t, boolQuery, "must")
	filter := boolQuery["filter"].([]map[string]interface{})
	require.Len(t, filter, 1)
	assert.Equal(t, org.String(), filter[0]["term"].(map[string]interface{})["organization_id"])

	q = buildQuery(org, "kayak")
	boolQuery = q["bool"].(map[string]interface{})
	assert.Contains(t, boolQuery, "must")
	assert.Contains(t, boolQuery, "filter")
}

func TestBuildSort(t *testing.T) {
	assert.Len(t, buildSort(""), 1)
	sorted := buildSort("kayak")
	require.Len(t, sorted, 2)
	assert.Contains(t, sorted[0], "_score")
}

// fakeCluster answers the handful of endpoints the client touches
func fakeCluster(t *testing.T, hits []string, seen *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		body, _ := io.ReadAll(r.Body)
		*seen = append(*seen, r.Method+" "+r.URL.Path+" "+string(body))

		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/activities":
			w.WriteHeader(http.StatusOK)
		case strings.HasSuffix(r.URL.Path, "/_search"):
			var docs []map[string]interface{}
			for _, id := range hits {
				docs = append(docs, map[string]interface{}{"_source": map[string]string{"id": id}})
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"hits": map[string]interface{}{"hits": docs}})
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"result":"not_found"}`))
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
}

func newTestClient(t *testing.T, url string) *ElasticsearchClient {
	t.Helper()
	client, err := NewElasticsearchClient(config.ElasticsearchConfig{
		URL:     url,
		Index:   "activities",
		Timeout: 5 * time.Second,
		Refresh: "false",
	})
	require.NoError(t, err)
	return client
}

func TestSearchActivitiesReturnsIDsInHitOrder(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	var seen []string
	srv := fakeCluster(t, []string{first.String(), "not-a-uuid", second.String()}, &seen)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	org := uuid.New()

	ids, err := client.SearchActivities(context.Background(), org, "kayak", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)

	last := seen[len(seen)-1]
	assert.Contains(t, last, org.String())
	assert.Contains(t, last, `"from":10`)
}

func TestDeleteActivityIgnoresMissingDocument(t *testing.T) {
	var seen []string
	srv := fakeCluster(t, nil, &seen)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	assert.NoError(t, client.DeleteActivity(context.Background(), uuid.New()))
}
