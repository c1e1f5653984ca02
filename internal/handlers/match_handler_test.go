package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/services/matching"
)

func postScoreUsers(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewMatchHandler(&matching.Service{}, common.GetLogger())
	r := httptest.NewRequest("POST", "/v1/match/score_users_for_job", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ScoreUsersForJob(w, r)
	return w
}

// Weight values the decoder cannot represent as finite float64 must map
// to the 422 weights code before any scoring work starts.
func TestScoreUsersNonFiniteWeightsRejected(t *testing.T) {
	bodies := map[string]string{
		"overflow":          `{"job_id":"job_1","user_ids":["usr_1"],"w_domain":1e309,"w_task":0}`,
		"bare_nan":          `{"job_id":"job_1","user_ids":["usr_1"],"w_domain":NaN,"w_task":0.5}`,
		"negative_infinity": `{"job_id":"job_1","user_ids":["usr_1"],"w_domain":0.5,"w_task":-Infinity}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			w := postScoreUsers(t, body)
			assert.Equal(t, 422, w.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, common.CodeWeights, resp["code"])
		})
	}
}

func TestScoreUsersMissingJobIDRejected(t *testing.T) {
	w := postScoreUsers(t, `{"user_ids":["usr_1"]}`)
	assert.Equal(t, 400, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, common.CodeValidation, resp["code"])
}
