package gate

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/aptus/internal/common"
)

// fakeEmbedder returns canned unit vectors keyed by specialty and counts
// calls so cache behavior is observable.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	v, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no canned vector for %q", text)
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 2 }

// unitAt returns a 2-d unit vector whose dot product with (1,0) is cos.
func unitAt(cos float64) []float32 {
	return []float32{float32(cos), float32(math.Sqrt(1 - cos*cos))}
}

func newTestGate(vectors map[string][]float32) (*Service, *fakeEmbedder) {
	emb := &fakeEmbedder{vectors: vectors}
	return NewService(emb, common.GetLogger()), emb
}

func promptFor(specialty string) string {
	return fmt.Sprintf(embedPrompt, specialty)
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, 0.80, Threshold("strict"))
	assert.Equal(t, 0.70, Threshold("moderate"))
	assert.Equal(t, 0.60, Threshold("lenient"))
	assert.Equal(t, 0.70, Threshold(""))
	assert.Equal(t, 0.70, Threshold("bogus"))
}

func TestEvaluateNoUserCodes(t *testing.T) {
	g, emb := newTestGate(nil)

	result, err := g.Evaluate(context.Background(), nil, []string{"medical:cardiology"}, nil, "moderate")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Equal(t, "no_subject_matter_codes", result.FailReason)
	assert.Equal(t, 0.70, result.Threshold)
	assert.Zero(t, emb.calls)
}

func TestEvaluateAcceptableCodeShortCircuit(t *testing.T) {
	g, emb := newTestGate(nil)

	result, err := g.Evaluate(context.Background(),
		[]string{"Medical:Nursing"},
		[]string{"medical:cardiology"},
		[]string{"medical:nursing"},
		"strict")
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, 1.0, result.BestSimilarity)
	assert.Equal(t, "Medical:Nursing", result.BestUserCode)
	assert.Zero(t, emb.calls, "acceptable-code hits must not embed anything")
}

func TestEvaluatePassAboveModerateThreshold(t *testing.T) {
	g, _ := newTestGate(map[string][]float32{
		promptFor("cardiology"):        unitAt(1.0),
		promptFor("internal medicine"): unitAt(0.73),
	})

	result, err := g.Evaluate(context.Background(),
		[]string{"medical:internal medicine"},
		[]string{"medical:cardiology"},
		nil, "moderate")
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.InDelta(t, 0.73, result.BestSimilarity, 0.001)
	assert.Empty(t, result.FailReason)
}

func TestEvaluateFailBelowModerateThreshold(t *testing.T) {
	g, _ := newTestGate(map[string][]float32{
		promptFor("cardiology"): unitAt(1.0),
		promptFor("pediatrics"): unitAt(0.68),
	})

	result, err := g.Evaluate(context.Background(),
		[]string{"medical:pediatrics"},
		[]string{"medical:cardiology"},
		nil, "moderate")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Equal(t, "low_similarity", result.FailReason)
	assert.Equal(t, "68% < 70%", result.FailDetail)
}

func TestEvaluatePicksBestPair(t *testing.T) {
	g, _ := newTestGate(map[string][]float32{
		promptFor("cardiology"): unitAt(1.0),
		promptFor("surgery"):    unitAt(0.5),
		promptFor("nursing"):    unitAt(0.82),
	})

	result, err := g.Evaluate(context.Background(),
		[]string{"medical:surgery", "medical:nursing"},
		[]string{"medical:cardiology"},
		nil, "strict")
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Equal(t, "medical:nursing", result.BestUserCode)
	assert.Equal(t, "medical:cardiology", result.BestJobCode)
}

func TestSpecialtyEmbeddingCache(t *testing.T) {
	g, emb := newTestGate(map[string][]float32{
		promptFor("cardiology"): unitAt(1.0),
		promptFor("nursing"):    unitAt(0.9),
	})

	_, err := g.Evaluate(context.Background(),
		[]string{"medical:nursing"}, []string{"medical:cardiology"}, nil, "lenient")
	require.NoError(t, err)
	firstCalls := emb.calls
	assert.Equal(t, 2, g.CacheSize())

	// Second evaluation of the same codes is served from cache.
	_, err = g.Evaluate(context.Background(),
		[]string{"medical:nursing"}, []string{"medical:cardiology"}, nil, "lenient")
	require.NoError(t, err)
	assert.Equal(t, firstCalls, emb.calls)
}

func TestEvaluateEmbedderFailurePropagates(t *testing.T) {
	g, _ := newTestGate(map[string][]float32{})

	_, err := g.Evaluate(context.Background(),
		[]string{"medical:nursing"}, []string{"medical:cardiology"}, nil, "moderate")
	require.Error(t, err)
}
