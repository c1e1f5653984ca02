package matching

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/models"
	"github.com/ternarybob/aptus/internal/services/pinecone"
	"github.com/ternarybob/aptus/internal/services/scoring"
)

// jobIndex carries the classification and embeddings produced while
// indexing a job, so the notify pipeline can reuse them without a
// second embed or fetch.
type jobIndex struct {
	Classification *models.JobClassification
	DomainVector   []float32
	TaskVector     []float32
}

// UpsertUser classifies, builds capsules, embeds, and indexes both user
// vectors. Idempotent: identical input produces identical store state.
func (s *Service) UpsertUser(ctx context.Context, profile *models.UserProfile) (*models.UserClassification, error) {
	requestID := common.RequestIDFrom(ctx)
	classification := s.classifier.ClassifyUser(ctx, profile)
	s.alerter.LowConfidence("usr_"+profile.ID, classification.Confidence)

	capsule, err := s.capsules.BuildUserCapsule(profile, classification)
	if err != nil {
		return nil, err
	}

	domainVec, taskVec, err := s.embedPair(ctx, capsule)
	if err != nil {
		return nil, err
	}

	meta := userMetadata(profile, classification)
	records := []models.VectorRecord{
		{ID: common.UserVectorID(profile.ID, common.SectionDomain), Values: domainVec, Metadata: withSection(meta, common.SectionDomain)},
		{ID: common.UserVectorID(profile.ID, common.SectionTask), Values: taskVec, Metadata: withSection(meta, common.SectionTask)},
	}
	if err := s.vectors.Upsert(ctx, s.usersNS, records); err != nil {
		return nil, err
	}

	s.audit.Record(&models.AuditEvent{
		RequestID: requestID,
		EventType: models.AuditUserUpsert,
		UserID:    profile.ID,
		Payload: map[string]interface{}{
			"expertise_tier":       string(classification.ExpertiseTier),
			"subject_matter_codes": classification.SubjectMatterCodes,
			"confidence":           classification.Confidence,
			"source":               string(classification.Source),
		},
	})

	s.logger.Info().
		Str("user_id", profile.ID).
		Str("expertise_tier", string(classification.ExpertiseTier)).
		Msg("User indexed")
	return classification, nil
}

// DeleteUser removes both user vectors and the user's audit trail.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	requestID := common.RequestIDFrom(ctx)

	ids := []string{
		common.UserVectorID(userID, common.SectionDomain),
		common.UserVectorID(userID, common.SectionTask),
	}
	if err := s.vectors.Delete(ctx, s.usersNS, ids); err != nil {
		return err
	}

	if _, err := s.storage.AuditStorage().DeleteByUser(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to delete user audit trail")
	}

	s.audit.Record(&models.AuditEvent{
		RequestID: requestID,
		EventType: models.AuditUserDelete,
		UserID:    userID,
	})
	return nil
}

// UpsertJob classifies, embeds, and indexes both job vectors, and
// ensures the authoritative job row.
func (s *Service) UpsertJob(ctx context.Context, job *models.JobPosting) (*jobIndex, error) {
	requestID := common.RequestIDFrom(ctx)
	classification := s.classifier.ClassifyJob(ctx, job)
	s.alerter.LowConfidence("job_"+job.ID, classification.Confidence)

	capsule, err := s.capsules.BuildJobCapsule(job, classification)
	if err != nil {
		return nil, err
	}

	domainVec, taskVec, err := s.embedPair(ctx, capsule)
	if err != nil {
		return nil, err
	}

	meta := jobMetadata(job, classification)
	records := []models.VectorRecord{
		{ID: common.JobVectorID(job.ID, common.SectionDomain), Values: domainVec, Metadata: withSection(meta, common.SectionDomain)},
		{ID: common.JobVectorID(job.ID, common.SectionTask), Values: taskVec, Metadata: withSection(meta, common.SectionTask)},
	}
	if err := s.vectors.Upsert(ctx, s.jobsNS, records); err != nil {
		return nil, err
	}

	if err := s.storage.JobStorage().EnsureJob(ctx, job.ID, job.Title, job.Active()); err != nil {
		return nil, err
	}

	s.audit.Record(&models.AuditEvent{
		RequestID: requestID,
		EventType: models.AuditJobUpsert,
		JobID:     job.ID,
		Payload: map[string]interface{}{
			"job_class":            string(classification.JobClass),
			"subject_matter_codes": classification.Requirements.SubjectMatterCodes,
			"confidence":           classification.Confidence,
			"source":               string(classification.Source),
		},
	})

	s.logger.Info().
		Str("job_id", job.ID).
		Str("job_class", string(classification.JobClass)).
		Msg("Job indexed")

	return &jobIndex{
		Classification: classification,
		DomainVector:   domainVec,
		TaskVector:     taskVec,
	}, nil
}

// DeleteJob removes job vectors, the job row, and all qualification
// rows.
func (s *Service) DeleteJob(ctx context.Context, jobID string) (int, error) {
	requestID := common.RequestIDFrom(ctx)

	ids := []string{
		common.JobVectorID(jobID, common.SectionDomain),
		common.JobVectorID(jobID, common.SectionTask),
	}
	if err := s.vectors.Delete(ctx, s.jobsNS, ids); err != nil {
		return 0, err
	}

	deleted, err := s.storage.QualificationStorage().DeleteJobQualifications(ctx, jobID)
	if err != nil {
		return 0, err
	}
	if err := s.storage.JobStorage().DeleteJob(ctx, jobID); err != nil {
		return deleted, err
	}

	s.audit.Record(&models.AuditEvent{
		RequestID: requestID,
		EventType: models.AuditJobDelete,
		JobID:     jobID,
		Payload:   map[string]interface{}{"qualifications_deleted": deleted},
	})
	return deleted, nil
}

// UpdateJobMetadata patches countries/languages on both job sections.
// Missing vectors fail with JOB_VECTORS_MISSING.
func (s *Service) UpdateJobMetadata(ctx context.Context, jobID string, countries, languages []string) error {
	ids := []string{
		common.JobVectorID(jobID, common.SectionDomain),
		common.JobVectorID(jobID, common.SectionTask),
	}

	found, err := s.vectors.Fetch(ctx, s.jobsNS, ids, pinecone.PhaseFetchJob)
	if err != nil {
		return err
	}
	if len(found) < len(ids) {
		return common.NewError(common.CodeJobVectorsMissing, "job vectors not found: "+jobID)
	}

	patch := map[string]interface{}{}
	if countries != nil {
		patch[models.MetaCountries] = countries
	}
	if languages != nil {
		patch[models.MetaLanguages] = models.NormalizeLanguages(languages)
	}
	if len(patch) == 0 {
		return common.NewError(common.CodeValidation, "metadata patch requires countries or languages")
	}

	return s.vectors.UpdateMetadata(ctx, s.jobsNS, ids, patch)
}

// SetJobStatus flips the authoritative active flag and fans it out to
// the job's qualification rows.
func (s *Service) SetJobStatus(ctx context.Context, jobID string, active bool) error {
	if err := s.storage.JobStorage().SetActive(ctx, jobID, active); err != nil {
		return err
	}
	return s.storage.QualificationStorage().SetJobActive(ctx, jobID, active)
}

// embedPair embeds the two capsule texts concurrently and normalizes
// both vectors to unit length.
func (s *Service) embedPair(ctx context.Context, capsule *models.Capsule) (domainVec, taskVec []float32, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vec, embedErr := s.embedder.Embed(gctx, capsule.DomainText)
		if embedErr != nil {
			return embedErr
		}
		scoring.Normalize(vec)
		domainVec = vec
		return nil
	})
	g.Go(func() error {
		vec, embedErr := s.embedder.Embed(gctx, capsule.TaskText)
		if embedErr != nil {
			return embedErr
		}
		scoring.Normalize(vec)
		taskVec = vec
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return domainVec, taskVec, nil
}

// jobMetadata builds the shared (section-free) metadata for both job
// vectors.
func jobMetadata(job *models.JobPosting, c *models.JobClassification) map[string]interface{} {
	req := c.Requirements
	return map[string]interface{}{
		models.MetaType:                    models.TypeJob,
		models.MetaJobID:                   job.ID,
		models.MetaJobClass:                string(c.JobClass),
		models.MetaRequiredCredentials:     req.Credentials,
		models.MetaSubjectMatterCodes:      req.SubjectMatterCodes,
		models.MetaAcceptableSubjectCodes:  req.AcceptableSubjectCodes,
		models.MetaSubjectMatterStrictness: string(req.SubjectMatterStrictness),
		models.MetaRequiredExperienceYears: req.MinimumExperienceYears,
		models.MetaExpertiseTier:           string(req.ExpertiseTier),
		models.MetaCountries:               req.Countries,
		models.MetaLanguages:               models.NormalizeLanguages(req.Languages),
	}
}

// userMetadata builds the shared metadata for both user vectors.
func userMetadata(profile *models.UserProfile, c *models.UserClassification) map[string]interface{} {
	meta := map[string]interface{}{
		models.MetaType:                  models.TypeUser,
		models.MetaUserID:                profile.ID,
		models.MetaExpertiseTier:         string(c.ExpertiseTier),
		models.MetaCredentials:           c.Credentials,
		models.MetaSubjectMatterCodes:    c.SubjectMatterCodes,
		models.MetaYearsExperience:       c.YearsExperience,
		models.MetaHasLabelingExperience: c.HasLabelingExperience,
		models.MetaLanguages:             models.NormalizeLanguages(profile.Languages),
	}
	if profile.Country != "" {
		meta[models.MetaCountry] = profile.Country
	}
	return meta
}

// withSection copies the shared metadata and stamps the section key.
// Domain and task vectors must agree on everything else.
func withSection(meta map[string]interface{}, section string) map[string]interface{} {
	out := make(map[string]interface{}, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out[models.MetaSection] = section
	return out
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
