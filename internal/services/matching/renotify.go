package matching

import (
	"context"
	"time"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/interfaces"
	"github.com/ternarybob/aptus/internal/models"
	"github.com/ternarybob/aptus/internal/services/pinecone"
	"github.com/ternarybob/aptus/internal/services/scoring"
)

// ReNotifyParams is the re-notify / evaluate pipeline input.
type ReNotifyParams struct {
	JobID            string
	Countries        []string
	Languages        []string
	MaxNotifications int
}

// replay holds the shared rescoring state used by ReNotify and Evaluate.
type replay struct {
	class     models.JobClass
	threshold float64
	scored    []*scoredCandidate
	jobActive bool
}

// ReNotify replays candidate retrieval and scoring for an edited job
// and notifies only the newly-qualifying delta. Previously notified
// users never reappear, even when they still qualify.
func (s *Service) ReNotify(ctx context.Context, params ReNotifyParams) (*models.ReNotifyResult, error) {
	start := time.Now()
	requestID := common.RequestIDFrom(ctx)

	state, err := s.rescoreJob(ctx, params)
	if err != nil {
		return nil, err
	}

	notified, err := s.storage.QualificationStorage().GetNotifiedUserIDs(ctx, params.JobID)
	if err != nil {
		return nil, err
	}

	totalQualified := 0
	var delta []*scoredCandidate
	for _, sc := range state.scored {
		if !sc.qualifies {
			continue
		}
		totalQualified++
		if _, was := notified[sc.userID]; !was {
			delta = append(delta, sc)
		}
	}

	// Cap applies to the delta, ordered by the ranking rule.
	delta = sortQualified(delta)
	maxNotify := s.maxNotifications(params.MaxNotifications)
	if len(delta) > maxNotify {
		for _, sc := range delta[maxNotify:] {
			sc.filterReason = models.FilterMaxCap
		}
		delta = delta[:maxNotify]
	}

	deltaIDs := make([]string, 0, len(delta))
	for _, sc := range delta {
		deltaIDs = append(deltaIDs, sc.userID)
	}

	outcome, err := s.storage.QualificationStorage().StoreResults(ctx, params.JobID, toScoredUsers(state.scored), interfaces.StoreResultsOptions{
		NotifiedUserIDs: deltaIDs,
		NotifiedVia:     "job_edit",
		JobActive:       state.jobActive,
		ThresholdUsed:   state.threshold,
	})
	if err != nil {
		return nil, err
	}
	if outcome.Failed > 0 {
		s.logger.Warn().
			Str("job_id", params.JobID).
			Int("failed", outcome.Failed).
			Msg("Some qualification rows failed to persist")
	}

	result := &models.ReNotifyResult{
		Status:                "ok",
		JobID:                 params.JobID,
		NewlyQualifiedUserIDs: deltaIDs,
		TotalQualified:        totalQualified,
		PreviouslyNotified:    len(notified),
		ElapsedMs:             elapsedMs(start),
	}

	s.audit.Record(&models.AuditEvent{
		RequestID: requestID,
		EventType: models.AuditReNotify,
		JobID:     params.JobID,
		Payload: map[string]interface{}{
			"total_qualified":     totalQualified,
			"previously_notified": len(notified),
			"newly_qualified":     len(deltaIDs),
			"threshold":           state.threshold,
		},
	})

	s.logger.Info().
		Str("job_id", params.JobID).
		Int("total_qualified", totalQualified).
		Int("previously_notified", len(notified)).
		Int("newly_qualified", len(deltaIDs)).
		Dur("duration", time.Since(start)).
		Msg("Re-notify pipeline completed")

	return result, nil
}

// Evaluate recomputes and persists qualifications without marking
// anyone notified. Sticky NotifiedAt values survive untouched.
func (s *Service) Evaluate(ctx context.Context, params ReNotifyParams) (*models.EvaluateResult, error) {
	start := time.Now()
	requestID := common.RequestIDFrom(ctx)

	state, err := s.rescoreJob(ctx, params)
	if err != nil {
		return nil, err
	}

	totalQualified := 0
	for _, sc := range state.scored {
		if sc.qualifies {
			totalQualified++
		}
	}

	if _, err := s.storage.QualificationStorage().StoreResults(ctx, params.JobID, toScoredUsers(state.scored), interfaces.StoreResultsOptions{
		JobActive:     state.jobActive,
		ThresholdUsed: state.threshold,
	}); err != nil {
		return nil, err
	}

	s.audit.Record(&models.AuditEvent{
		RequestID: requestID,
		EventType: models.AuditEvaluate,
		JobID:     params.JobID,
		Payload: map[string]interface{}{
			"total_candidates": len(state.scored),
			"total_qualified":  totalQualified,
			"threshold":        state.threshold,
		},
	})

	return &models.EvaluateResult{
		Status:          "ok",
		JobID:           params.JobID,
		TotalCandidates: len(state.scored),
		TotalQualified:  totalQualified,
		ElapsedMs:       elapsedMs(start),
	}, nil
}

// rescoreJob loads the stored job vectors and replays retrieval,
// enrichment, scoring, and gating. Request-provided geography overrides
// the stored metadata.
func (s *Service) rescoreJob(ctx context.Context, params ReNotifyParams) (*replay, error) {
	domainID := common.JobVectorID(params.JobID, common.SectionDomain)
	taskID := common.JobVectorID(params.JobID, common.SectionTask)

	found, err := s.vectors.Fetch(ctx, s.jobsNS, []string{domainID, taskID}, pinecone.PhaseFetchJob)
	if err != nil {
		return nil, err
	}
	domainRec, haveDomain := found[domainID]
	taskRec, haveTask := found[taskID]
	if !haveDomain || !haveTask {
		return nil, common.NewError(common.CodeJobNotFound, "job not found: "+params.JobID)
	}

	meta := domainRec.Metadata
	class := models.JobClass(metaString(meta, models.MetaJobClass))
	if class != models.JobClassSpecialized {
		class = models.JobClassGeneric
	}

	countries := params.Countries
	if len(countries) == 0 {
		countries = metaStrings(meta, models.MetaCountries)
	}
	languages := params.Languages
	if len(languages) == 0 {
		languages = metaStrings(meta, models.MetaLanguages)
	}

	candidates, err := s.assembleCandidates(ctx, domainRec.Values, taskRec.Values, countries, languages)
	if err != nil {
		return nil, err
	}

	threshold := scoring.NotifyThreshold(class, len(candidates))
	scored := s.scoreAndThreshold(candidates, class, threshold)

	req := models.JobRequirements{
		SubjectMatterCodes:      metaStrings(meta, models.MetaSubjectMatterCodes),
		AcceptableSubjectCodes:  metaStrings(meta, models.MetaAcceptableSubjectCodes),
		SubjectMatterStrictness: models.Strictness(metaString(meta, models.MetaSubjectMatterStrictness)),
	}
	if class == models.JobClassSpecialized && len(req.SubjectMatterCodes) > 0 {
		s.applyGate(ctx, scored, req)
	}

	jobActive := true
	if job, err := s.storage.JobStorage().GetJob(ctx, params.JobID); err == nil {
		jobActive = job.IsActive
	}

	return &replay{
		class:     class,
		threshold: threshold,
		scored:    scored,
		jobActive: jobActive,
	}, nil
}
