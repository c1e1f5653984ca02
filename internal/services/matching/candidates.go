package matching

import (
	"context"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
	"github.com/ternarybob/aptus/internal/models"
	"github.com/ternarybob/aptus/internal/services/pinecone"
)

// candidate is one retrieved user with its per-channel similarities and
// the metadata needed by the gate.
type candidate struct {
	userID       string
	domainScore  float64
	taskScore    float64
	hasTask      bool
	subjectCodes []string
}

// retrieveCandidates queries the domain channel for the candidate pool.
// Country and language constraints use $in; empty lists leave the
// dimension unconstrained.
func (s *Service) retrieveCandidates(ctx context.Context, domainVec []float32, countries, languages []string) ([]models.QueryMatch, error) {
	clauses := []map[string]interface{}{
		pinecone.Eq(models.MetaType, models.TypeUser),
		pinecone.Eq(models.MetaSection, common.SectionDomain),
	}
	if len(countries) > 0 {
		clauses = append(clauses, pinecone.In(models.MetaCountry, countries))
	}
	if len(languages) > 0 {
		clauses = append(clauses, pinecone.In(models.MetaLanguages, languages))
	}

	matches, err := s.vectors.Query(ctx, interfaces.VectorQuery{
		Vector:    domainVec,
		TopK:      s.candidateTopK(),
		Filter:    pinecone.And(clauses...),
		Namespace: s.usersNS,
		Phase:     pinecone.PhaseQueryDomain,
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// enrichTaskScores queries the task channel for the given users in
// sequential chunks and returns userID -> task similarity.
func (s *Service) enrichTaskScores(ctx context.Context, taskVec []float32, userIDs []string) (map[string]float64, error) {
	scores := make(map[string]float64, len(userIDs))

	for _, chunk := range chunkStrings(userIDs, s.chunkSize()) {
		filter := pinecone.And(
			pinecone.Eq(models.MetaType, models.TypeUser),
			pinecone.Eq(models.MetaSection, common.SectionTask),
			pinecone.In(models.MetaUserID, chunk),
		)
		matches, err := s.vectors.Query(ctx, interfaces.VectorQuery{
			Vector:    taskVec,
			TopK:      len(chunk),
			Filter:    filter,
			Namespace: s.usersNS,
			Phase:     pinecone.PhaseQueryTask,
		})
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			userID := metaString(match.Metadata, models.MetaUserID)
			if userID == "" {
				if _, id, _, ok := common.ParseVectorID(match.ID); ok {
					userID = id
				}
			}
			if userID != "" {
				scores[userID] = match.Score
			}
		}
	}
	return scores, nil
}

// assembleCandidates merges the domain pool with the task channel into
// blended candidates.
func (s *Service) assembleCandidates(ctx context.Context, domainVec, taskVec []float32, countries, languages []string) ([]candidate, error) {
	matches, err := s.retrieveCandidates(ctx, domainVec, countries, languages)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	userIDs := make([]string, 0, len(matches))
	for _, match := range matches {
		userID := metaString(match.Metadata, models.MetaUserID)
		if userID == "" {
			if _, id, _, ok := common.ParseVectorID(match.ID); ok {
				userID = id
			}
		}
		if userID != "" {
			userIDs = append(userIDs, userID)
		}
	}

	taskScores, err := s.enrichTaskScores(ctx, taskVec, userIDs)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(matches))
	for _, match := range matches {
		userID := metaString(match.Metadata, models.MetaUserID)
		if userID == "" {
			if _, id, _, ok := common.ParseVectorID(match.ID); ok {
				userID = id
			}
		}
		if userID == "" {
			continue
		}
		taskScore, hasTask := taskScores[userID]
		candidates = append(candidates, candidate{
			userID:       userID,
			domainScore:  match.Score,
			taskScore:    taskScore,
			hasTask:      hasTask,
			subjectCodes: metaStrings(match.Metadata, models.MetaSubjectMatterCodes),
		})
	}
	return candidates, nil
}
