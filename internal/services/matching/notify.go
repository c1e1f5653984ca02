package matching

import (
	"context"
	"sort"
	"time"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
	"github.com/ternarybob/aptus/internal/models"
	"github.com/ternarybob/aptus/internal/services/gate"
	"github.com/ternarybob/aptus/internal/services/scoring"
)

// NotifyParams is the notify pipeline input after normalization.
type NotifyParams struct {
	Job              models.JobPosting
	Countries        []string
	Languages        []string
	MaxNotifications int
}

// scoredCandidate is one pipeline outcome before persistence.
type scoredCandidate struct {
	candidate
	finalScore   float64
	qualifies    bool
	filterReason string
}

// Notify runs the full pipeline: index the job, retrieve and score the
// candidate pool, gate, cap, persist qualifications, and return the
// users to notify.
func (s *Service) Notify(ctx context.Context, params NotifyParams) (*models.NotifyResult, error) {
	start := time.Now()
	requestID := common.RequestIDFrom(ctx)

	idx, err := s.UpsertJob(ctx, &params.Job)
	if err != nil {
		return nil, err
	}
	class := idx.Classification.JobClass

	candidates, err := s.assembleCandidates(ctx, idx.DomainVector, idx.TaskVector, params.Countries, params.Languages)
	if err != nil {
		return nil, err
	}

	result := &models.NotifyResult{
		Status:        "ok",
		JobID:         params.Job.ID,
		JobClass:      class,
		NotifyUserIDs: []string{},
	}

	if len(candidates) == 0 {
		result.ElapsedMs = elapsedMs(start)
		s.auditNotify(requestID, params.Job.ID, result, nil, 0)
		s.alerter.MatchVolume(params.Job.ID, 0, 0)
		return result, nil
	}

	pool := len(candidates)
	threshold := scoring.NotifyThreshold(class, pool)
	scored := s.scoreAndThreshold(candidates, class, threshold)

	// Subject-matter gate applies only to specialized jobs that actually
	// carry required codes.
	var gateSummary *models.SubjectMatterFilterSummary
	req := idx.Classification.Requirements
	if class == models.JobClassSpecialized && len(req.SubjectMatterCodes) > 0 {
		gateSummary = s.applyGate(ctx, scored, req)
	}

	qualified := sortQualified(scored)

	// Safety cap. Users beyond the cap still qualify; they are simply
	// not notified this pass.
	maxNotify := s.maxNotifications(params.MaxNotifications)
	notifyIDs := make([]string, 0, maxNotify)
	for i, sc := range qualified {
		if i < maxNotify {
			notifyIDs = append(notifyIDs, sc.userID)
			continue
		}
		sc.filterReason = models.FilterMaxCap
	}

	outcome, err := s.storage.QualificationStorage().StoreResults(ctx, params.Job.ID, toScoredUsers(scored), interfaces.StoreResultsOptions{
		NotifiedUserIDs: notifyIDs,
		NotifiedVia:     "job_post",
		JobTitle:        params.Job.Title,
		JobActive:       params.Job.Active(),
		ThresholdUsed:   threshold,
	})
	if err != nil {
		return nil, err
	}
	if outcome.Failed > 0 {
		s.logger.Warn().
			Str("job_id", params.Job.ID).
			Int("failed", outcome.Failed).
			Int("stored", outcome.Stored).
			Msg("Some qualification rows failed to persist")
	}

	aboveThreshold := 0
	minScore, maxScore := scored[0].finalScore, scored[0].finalScore
	for _, sc := range scored {
		if sc.finalScore >= threshold {
			aboveThreshold++
		}
		if sc.finalScore < minScore {
			minScore = sc.finalScore
		}
		if sc.finalScore > maxScore {
			maxScore = sc.finalScore
		}
	}

	result.NotifyUserIDs = notifyIDs
	result.TotalCandidates = pool
	result.TotalAboveThreshold = aboveThreshold
	result.SubjectMatterFilter = gateSummary
	result.ScoreStats = &models.ScoreStats{Min: minScore, Max: maxScore}
	result.ElapsedMs = elapsedMs(start)

	missingTask := 0
	for _, sc := range scored {
		if !sc.hasTask {
			missingTask++
		}
	}
	s.alerter.MatchVolume(params.Job.ID, pool, aboveThreshold)
	s.alerter.MissingVectors(params.Job.ID, missingTask, pool)
	s.auditNotify(requestID, params.Job.ID, result, scored, threshold)

	s.logger.Info().
		Str("job_id", params.Job.ID).
		Str("job_class", string(class)).
		Int("candidates", pool).
		Int("above_threshold", aboveThreshold).
		Int("notified", len(notifyIDs)).
		Float64("threshold", threshold).
		Dur("duration", time.Since(start)).
		Msg("Notify pipeline completed")

	return result, nil
}

// scoreAndThreshold blends channel scores and marks below-threshold
// candidates. Missing task vectors contribute zero to the blend.
func (s *Service) scoreAndThreshold(candidates []candidate, class models.JobClass, threshold float64) []*scoredCandidate {
	wDomain, wTask := models.WeightsFor(class)

	scored := make([]*scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		final := scoring.Round6(scoring.Blend(wDomain, wTask, c.domainScore, c.taskScore))
		sc := &scoredCandidate{candidate: c, finalScore: final}
		if final >= threshold {
			sc.qualifies = true
		} else {
			sc.filterReason = models.FilterBelowThreshold
		}
		scored = append(scored, sc)
	}
	return scored
}

// applyGate runs the subject-matter gate over candidates that are still
// above threshold, demoting failures with the gate's reason.
func (s *Service) applyGate(ctx context.Context, scored []*scoredCandidate, req models.JobRequirements) *models.SubjectMatterFilterSummary {
	summary := &models.SubjectMatterFilterSummary{
		Required:   req.SubjectMatterCodes,
		Acceptable: req.AcceptableSubjectCodes,
		Strictness: req.SubjectMatterStrictness,
		Threshold:  gate.Threshold(req.SubjectMatterStrictness),
	}

	for _, sc := range scored {
		if !sc.qualifies {
			continue
		}
		gateResult, err := s.gate.Evaluate(ctx, sc.subjectCodes, req.SubjectMatterCodes, req.AcceptableSubjectCodes, req.SubjectMatterStrictness)
		if err != nil {
			// Embedding failure inside the gate blocks the pipeline per
			// the propagation policy, but a per-user evaluation error is
			// treated as a mismatch to keep the batch moving.
			s.logger.Warn().Err(err).Str("user_id", sc.userID).Msg("Subject-matter gate evaluation failed")
			sc.qualifies = false
			sc.filterReason = models.FilterSubjectMatterMismatch
			summary.FilteredCount++
			continue
		}
		if gateResult.Passed {
			summary.PassedCount++
			continue
		}
		sc.qualifies = false
		sc.filterReason = gateResult.FailReason
		summary.FilteredCount++
	}
	return summary
}

// sortQualified orders qualifying candidates by the ranking rule: final
// desc, domain desc, user id asc.
func sortQualified(scored []*scoredCandidate) []*scoredCandidate {
	qualified := make([]*scoredCandidate, 0, len(scored))
	for _, sc := range scored {
		if sc.qualifies {
			qualified = append(qualified, sc)
		}
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		if qualified[i].finalScore != qualified[j].finalScore {
			return qualified[i].finalScore > qualified[j].finalScore
		}
		if qualified[i].domainScore != qualified[j].domainScore {
			return qualified[i].domainScore > qualified[j].domainScore
		}
		return qualified[i].userID < qualified[j].userID
	})
	return qualified
}

// toScoredUsers converts pipeline outcomes to storage rows. Notified
// users carry no filter reason.
func toScoredUsers(scored []*scoredCandidate) []models.ScoredUser {
	rows := make([]models.ScoredUser, 0, len(scored))
	for _, sc := range scored {
		rows = append(rows, models.ScoredUser{
			UserID:       sc.userID,
			DomainScore:  scoring.Round6(sc.domainScore),
			TaskScore:    scoring.Round6(sc.taskScore),
			FinalScore:   sc.finalScore,
			Qualifies:    sc.qualifies,
			FilterReason: sc.filterReason,
		})
	}
	return rows
}

func (s *Service) auditNotify(requestID, jobID string, result *models.NotifyResult, scored []*scoredCandidate, threshold float64) {
	payload := map[string]interface{}{
		"job_class":             string(result.JobClass),
		"total_candidates":      result.TotalCandidates,
		"total_above_threshold": result.TotalAboveThreshold,
		"notified_count":        len(result.NotifyUserIDs),
		"threshold":             threshold,
	}
	if len(scored) > 0 {
		users := make([]map[string]interface{}, 0, len(scored))
		for _, sc := range scored {
			entry := map[string]interface{}{
				"user_id":     sc.userID,
				"final_score": sc.finalScore,
				"qualifies":   sc.qualifies,
			}
			if sc.filterReason != "" {
				entry["filter_reason"] = sc.filterReason
			}
			users = append(users, entry)
		}
		payload["users"] = users
	}

	s.audit.Record(&models.AuditEvent{
		RequestID: requestID,
		EventType: models.AuditNotify,
		JobID:     jobID,
		Payload:   payload,
	})
}
