package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/aptus/internal/common"
)

func decodeBody(t *testing.T, body string, out interface{}) error {
	t.Helper()
	r := httptest.NewRequest("POST", "/v1/test", strings.NewReader(body))
	return DecodeLenient(r, out)
}

func TestDecodeLenientStrictJSON(t *testing.T) {
	var out map[string]interface{}
	require.NoError(t, decodeBody(t, `{"job_id":"job_1"}`, &out))
	assert.Equal(t, "job_1", out["job_id"])
}

func TestDecodeLenientSmartQuotes(t *testing.T) {
	var out map[string]interface{}
	require.NoError(t, decodeBody(t, `{“job_id”: “job_1”}`, &out))
	assert.Equal(t, "job_1", out["job_id"])
}

func TestDecodeLenientTrailingCommas(t *testing.T) {
	var out map[string]interface{}
	require.NoError(t, decodeBody(t, `{"ids": ["a", "b",], "n": 1,}`, &out))
	assert.Equal(t, []interface{}{"a", "b"}, out["ids"])
}

func TestDecodeLenientBareNonFinite(t *testing.T) {
	var out map[string]interface{}
	require.NoError(t, decodeBody(t, `{"w_domain": NaN, "w_task": -Infinity}`, &out))
	assert.Nil(t, out["w_domain"])
	assert.Nil(t, out["w_task"])
}

func TestDecodeLenientGarbageRejected(t *testing.T) {
	var out map[string]interface{}
	err := decodeBody(t, `not json at all {{{`, &out)
	require.Error(t, err)
	assert.Equal(t, common.CodeValidation, common.AsError(err).Code)
}

func TestDecodeLenientEmptyBody(t *testing.T) {
	var out map[string]interface{}
	err := decodeBody(t, "", &out)
	require.Error(t, err)
	assert.Equal(t, common.CodeValidation, common.AsError(err).Code)
}

func TestPathSegment(t *testing.T) {
	assert.Equal(t, "usr_1", PathSegment("/v1/users/usr_1", "/v1/users/"))
	assert.Equal(t, "usr_1", PathSegment("/v1/users/usr_1/extra", "/v1/users/"))
	assert.Equal(t, "", PathSegment("/other/usr_1", "/v1/users/"))
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest("GET", "/v1/test?limit=25&bad=x&flag=true", nil)
	assert.Equal(t, 25, QueryInt(r, "limit", 100))
	assert.Equal(t, 100, QueryInt(r, "missing", 100))
	assert.Equal(t, 100, QueryInt(r, "bad", 100))
	assert.True(t, QueryBool(r, "flag"))
	assert.False(t, QueryBool(r, "missing"))
}
