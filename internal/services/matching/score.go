package matching

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
	"github.com/ternarybob/aptus/internal/models"
	"github.com/ternarybob/aptus/internal/services/pinecone"
	"github.com/ternarybob/aptus/internal/services/scoring"
)

// ScoreUsersParams is the synchronous score API input.
type ScoreUsersParams struct {
	JobID        string
	UserIDs      []string
	WeightDomain float64
	WeightTask   float64
	AutoWeights  bool
	TopK         int
	Threshold    *float64
}

// ScoreJobsParams is the reverse score API input.
type ScoreJobsParams struct {
	UserID      string
	JobIDs      []string
	AutoWeights bool
	TopK        int
}

// ScoreUsersForJob computes blended scores for an explicit candidate
// list. Deterministic: fixed inputs produce identical scores, ranks,
// and tie-breaking.
func (s *Service) ScoreUsersForJob(ctx context.Context, params ScoreUsersParams) (*models.ScoreUsersResult, error) {
	start := time.Now()
	requestID := common.RequestIDFrom(ctx)

	// Weight validation precedes any store traffic.
	var wDomain, wTask float64
	if !params.AutoWeights {
		var err error
		wDomain, wTask, err = scoring.NormalizeWeights(params.WeightDomain, params.WeightTask)
		if err != nil {
			return nil, err
		}
	}

	userIDs := dedupe(params.UserIDs)
	maxCandidates := s.config.MaxScoreCandidates
	if maxCandidates <= 0 {
		maxCandidates = 50000
	}
	if len(userIDs) > maxCandidates {
		return nil, common.NewError(common.CodeValidation,
			fmt.Sprintf("candidate list exceeds limit: %d > %d", len(userIDs), maxCandidates))
	}

	domainID := common.JobVectorID(params.JobID, common.SectionDomain)
	taskID := common.JobVectorID(params.JobID, common.SectionTask)
	found, err := s.vectors.Fetch(ctx, s.jobsNS, []string{domainID, taskID}, pinecone.PhaseFetchJob)
	if err != nil {
		return nil, err
	}
	domainRec, haveDomain := found[domainID]
	taskRec, haveTask := found[taskID]
	if !haveDomain || !haveTask {
		return nil, common.NewError(common.CodeJobVectorsMissing, "job vectors not found: "+params.JobID)
	}

	class := models.JobClass(metaString(domainRec.Metadata, models.MetaJobClass))
	if class != models.JobClassSpecialized {
		class = models.JobClassGeneric
	}
	if params.AutoWeights {
		wDomain, wTask = models.WeightsFor(class)
	}

	domainScores, taskScores, err := s.channelScores(ctx, domainRec.Values, taskRec.Values, userIDs, params.TopK)
	if err != nil {
		return nil, err
	}

	results := make([]models.UserScore, 0, len(userIDs))
	missing := models.MissingVectors{Domain: []string{}, Task: []string{}}
	finals := make([]float64, 0, len(userIDs))

	for _, userID := range userIDs {
		score := models.UserScore{UserID: userID}
		var sd, st float64
		if v, ok := domainScores[userID]; ok {
			rounded := scoring.Round6(v)
			score.DomainScore = &rounded
			sd = v
		} else {
			missing.Domain = append(missing.Domain, userID)
		}
		if v, ok := taskScores[userID]; ok {
			rounded := scoring.Round6(v)
			score.TaskScore = &rounded
			st = v
		} else {
			missing.Task = append(missing.Task, userID)
		}
		score.FinalScore = scoring.Round6(scoring.Blend(wDomain, wTask, sd, st))
		finals = append(finals, score.FinalScore)
		results = append(results, score)
	}

	scoring.RankUsers(results)
	suggestion := scoring.AutoThreshold(finals, class)

	result := &models.ScoreUsersResult{
		Status:             "ok",
		JobID:              params.JobID,
		JobClass:           class,
		Weights:            models.Weights{Domain: scoring.Round6(wDomain), Task: scoring.Round6(wTask)},
		Results:            results,
		MissingVectors:     missing,
		SuggestedThreshold: suggestion,
		ElapsedMs:          elapsedMs(start),
	}
	if params.Threshold != nil {
		count := 0
		for _, f := range finals {
			if f >= *params.Threshold {
				count++
			}
		}
		result.CountGTEThreshold = &count
	}

	s.audit.Record(&models.AuditEvent{
		RequestID: requestID,
		EventType: models.AuditMatchScore,
		JobID:     params.JobID,
		Payload: map[string]interface{}{
			"candidates":     len(userIDs),
			"missing_domain": len(missing.Domain),
			"missing_task":   len(missing.Task),
			"auto_weights":   params.AutoWeights,
		},
	})

	return result, nil
}

// ScoreJobsForUser scores a user against an explicit job list using the
// stored vectors directly.
func (s *Service) ScoreJobsForUser(ctx context.Context, params ScoreJobsParams) (*models.ScoreJobsResult, error) {
	start := time.Now()
	requestID := common.RequestIDFrom(ctx)

	userDomainID := common.UserVectorID(params.UserID, common.SectionDomain)
	userTaskID := common.UserVectorID(params.UserID, common.SectionTask)
	found, err := s.vectors.Fetch(ctx, s.usersNS, []string{userDomainID, userTaskID}, pinecone.PhaseFetchUser)
	if err != nil {
		return nil, err
	}
	userDomain, haveDomain := found[userDomainID]
	userTask, haveTask := found[userTaskID]
	if !haveDomain || !haveTask {
		return nil, common.NewError(common.CodeUserVectorsMissing, "user vectors not found: "+params.UserID)
	}

	jobIDs := dedupe(params.JobIDs)
	vectorIDs := make([]string, 0, len(jobIDs)*2)
	for _, jobID := range jobIDs {
		vectorIDs = append(vectorIDs,
			common.JobVectorID(jobID, common.SectionDomain),
			common.JobVectorID(jobID, common.SectionTask))
	}

	jobVectors := make(map[string]models.VectorRecord, len(vectorIDs))
	for _, chunk := range chunkStrings(vectorIDs, s.chunkSize()) {
		fetched, err := s.vectors.Fetch(ctx, s.jobsNS, chunk, pinecone.PhaseFetchJob)
		if err != nil {
			return nil, err
		}
		for id, rec := range fetched {
			jobVectors[id] = rec
		}
	}

	results := make([]models.JobScore, 0, len(jobIDs))
	missingJobs := []string{}

	for _, jobID := range jobIDs {
		domainRec, haveJobDomain := jobVectors[common.JobVectorID(jobID, common.SectionDomain)]
		taskRec, haveJobTask := jobVectors[common.JobVectorID(jobID, common.SectionTask)]
		if !haveJobDomain && !haveJobTask {
			missingJobs = append(missingJobs, jobID)
			continue
		}

		class := models.JobClass(metaString(domainRec.Metadata, models.MetaJobClass))
		if class != models.JobClassSpecialized {
			class = models.JobClassGeneric
		}
		wDomain, wTask := models.WeightsFor(class)

		score := models.JobScore{JobID: jobID, JobClass: class}
		var sd, st float64
		if haveJobDomain {
			v := scoring.Round6(scoring.Dot(userDomain.Values, domainRec.Values))
			score.DomainScore = &v
			sd = v
		}
		if haveJobTask {
			v := scoring.Round6(scoring.Dot(userTask.Values, taskRec.Values))
			score.TaskScore = &v
			st = v
		}
		score.FinalScore = scoring.Round6(scoring.Blend(wDomain, wTask, sd, st))
		results = append(results, score)
	}

	scoring.RankJobs(results)
	if params.TopK > 0 && len(results) > params.TopK {
		results = results[:params.TopK]
	}

	s.audit.Record(&models.AuditEvent{
		RequestID: requestID,
		EventType: models.AuditMatchScore,
		UserID:    params.UserID,
		Payload: map[string]interface{}{
			"jobs":         len(jobIDs),
			"missing_jobs": len(missingJobs),
		},
	})

	return &models.ScoreJobsResult{
		Status:      "ok",
		UserID:      params.UserID,
		Results:     results,
		MissingJobs: missingJobs,
		ElapsedMs:   elapsedMs(start),
	}, nil
}

// channelScores queries both channels concurrently; within each channel
// chunks run sequentially to respect the store's filter-argument limit.
func (s *Service) channelScores(ctx context.Context, domainVec, taskVec []float32, userIDs []string, topK int) (map[string]float64, map[string]float64, error) {
	domainScores := make(map[string]float64, len(userIDs))
	taskScores := make(map[string]float64, len(userIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.scoreChannel(gctx, domainVec, common.SectionDomain, userIDs, topK, domainScores)
	})
	g.Go(func() error {
		return s.scoreChannel(gctx, taskVec, common.SectionTask, userIDs, topK, taskScores)
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return domainScores, taskScores, nil
}

func (s *Service) scoreChannel(ctx context.Context, vec []float32, section string, userIDs []string, topK int, out map[string]float64) error {
	phase := pinecone.PhaseQueryDomain
	if section == common.SectionTask {
		phase = pinecone.PhaseQueryTask
	}

	for _, chunk := range chunkStrings(userIDs, s.chunkSize()) {
		limit := len(chunk)
		if topK > 0 && topK < limit {
			limit = topK
		}
		filter := pinecone.And(
			pinecone.Eq(models.MetaType, models.TypeUser),
			pinecone.Eq(models.MetaSection, section),
			pinecone.In(models.MetaUserID, chunk),
		)
		matches, err := s.vectors.Query(ctx, interfaces.VectorQuery{
			Vector:    vec,
			TopK:      limit,
			Filter:    filter,
			Namespace: s.usersNS,
			Phase:     phase,
		})
		if err != nil {
			return err
		}
		for _, match := range matches {
			userID := metaString(match.Metadata, models.MetaUserID)
			if userID == "" {
				if _, id, _, ok := common.ParseVectorID(match.ID); ok {
					userID = id
				}
			}
			if userID != "" {
				out[userID] = match.Score
			}
		}
	}
	return nil
}

// dedupe removes duplicate ids preserving first occurrence order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
