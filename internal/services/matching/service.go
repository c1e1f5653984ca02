package matching

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
)

// Service orchestrates the indexing, notify, re-notify, and scoring
// pipelines. All state is request-scoped; the service itself only holds
// wiring.
type Service struct {
	config     *common.MatchingConfig
	vectors    interfaces.VectorStore
	embedder   interfaces.EmbeddingService
	classifier interfaces.ClassifierService
	capsules   interfaces.CapsuleBuilder
	gate       interfaces.SubjectMatterGate
	storage    interfaces.StorageManager
	audit      interfaces.AuditSink
	alerter    interfaces.Alerter
	usersNS    string
	jobsNS     string
	logger     arbor.ILogger
}

// Deps bundles the collaborators the pipelines need.
type Deps struct {
	Config     *common.MatchingConfig
	Vectors    interfaces.VectorStore
	Embedder   interfaces.EmbeddingService
	Classifier interfaces.ClassifierService
	Capsules   interfaces.CapsuleBuilder
	Gate       interfaces.SubjectMatterGate
	Storage    interfaces.StorageManager
	Audit      interfaces.AuditSink
	Alerter    interfaces.Alerter
	UsersNS    string
	JobsNS     string
	Logger     arbor.ILogger
}

// NewService creates the matching service.
func NewService(deps Deps) *Service {
	return &Service{
		config:     deps.Config,
		vectors:    deps.Vectors,
		embedder:   deps.Embedder,
		classifier: deps.Classifier,
		capsules:   deps.Capsules,
		gate:       deps.Gate,
		storage:    deps.Storage,
		audit:      deps.Audit,
		alerter:    deps.Alerter,
		usersNS:    deps.UsersNS,
		jobsNS:     deps.JobsNS,
		logger:     deps.Logger,
	}
}

func (s *Service) chunkSize() int {
	if s.config.ChunkSize > 0 {
		return s.config.ChunkSize
	}
	return 500
}

func (s *Service) candidateTopK() int {
	if s.config.CandidateTopK > 0 {
		return s.config.CandidateTopK
	}
	return 10000
}

func (s *Service) maxNotifications(requested int) int {
	if requested > 0 {
		return requested
	}
	if s.config.MaxNotifications > 0 {
		return s.config.MaxNotifications
	}
	return 100
}

// chunkStrings splits ids into fixed-size chunks, preserving order.
func chunkStrings(ids []string, size int) [][]string {
	if size <= 0 {
		size = len(ids)
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// metaString reads a string metadata value, tolerating absence.
func metaString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

// metaStrings reads a string-list metadata value. Vector stores return
// lists as []interface{}, so both shapes are accepted.
func metaStrings(meta map[string]interface{}, key string) []string {
	if meta == nil {
		return nil
	}
	switch v := meta[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
