package interfaces

import (
	"context"

	"github.com/ternarybob/aptus/internal/models"
)

// ClassifierService turns normalized inputs into classification records.
// Implementations fall back to a deterministic heuristic when the LLM is
// unavailable; callers never block on classifier failures.
type ClassifierService interface {
	ClassifyJob(ctx context.Context, job *models.JobPosting) *models.JobClassification
	ClassifyUser(ctx context.Context, profile *models.UserProfile) *models.UserClassification
}

// CapsuleBuilder produces the two embedding texts for an entity.
type CapsuleBuilder interface {
	BuildJobCapsule(job *models.JobPosting, classification *models.JobClassification) (*models.Capsule, error)
	BuildUserCapsule(profile *models.UserProfile, classification *models.UserClassification) (*models.Capsule, error)
}

// SubjectMatterGate decides whether a candidate's subject codes are close
// enough to a job's required codes.
type SubjectMatterGate interface {
	Evaluate(ctx context.Context, userCodes, jobCodes, acceptableCodes []string, strictness models.Strictness) (*models.GateResult, error)
}
