package pinecone

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
)

func newFailingClient(t *testing.T) *Client {
	t.Helper()
	// 400 is non-retryable, so calls fail fast.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad request"}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(&common.PineconeConfig{APIKey: "key", Host: srv.URL}, 2, 5*time.Second, common.GetLogger())
	require.NoError(t, err)
	return client
}

func TestStoreFailureCarriesPhase(t *testing.T) {
	client := newFailingClient(t)
	ctx := context.Background()

	_, err := client.Fetch(ctx, "jobs", []string{"job:j1:domain"}, PhaseFetchJob)
	require.Error(t, err)
	de := common.AsError(err)
	assert.Equal(t, common.CodeStoreFailure, de.Code)
	assert.Equal(t, PhaseFetchJob, de.Details["phase"])

	_, err = client.Query(ctx, interfaces.VectorQuery{Vector: []float32{1, 0}, TopK: 1, Phase: PhaseQueryTask})
	require.Error(t, err)
	assert.Equal(t, PhaseQueryTask, common.AsError(err).Details["phase"])
}

func TestStoreFailurePhaseDefaults(t *testing.T) {
	client := newFailingClient(t)
	ctx := context.Background()

	_, err := client.Fetch(ctx, "", []string{"user:u1:domain"}, "")
	require.Error(t, err)
	assert.Equal(t, "fetch", common.AsError(err).Details["phase"])

	_, err = client.Query(ctx, interfaces.VectorQuery{Vector: []float32{1, 0}, TopK: 1})
	require.Error(t, err)
	assert.Equal(t, "query", common.AsError(err).Details["phase"])
}
