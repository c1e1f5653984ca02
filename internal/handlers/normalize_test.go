package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/aptus/internal/common"
)

func boolPtr(v bool) *bool { return &v }

func TestUserUpsertNormalizeAliases(t *testing.T) {
	req := &userUpsertRequest{
		UserID:          "usr_1",
		Bio:             "  Nurse and annotator  ",
		LabelExperience: boolPtr(true),
		Languages:       []string{"Slovak – Proficiency Level = Native", "slovak"},
	}

	profile, err := req.normalize()
	require.NoError(t, err)
	assert.Equal(t, "usr_1", profile.ID, "user_id alias must populate id")
	assert.Equal(t, "Nurse and annotator", profile.Bio)
	assert.True(t, profile.HasLabelingExperience)
	assert.Equal(t, []string{"Slovak"}, profile.Languages)
}

func TestUserUpsertIDPrecedence(t *testing.T) {
	req := &userUpsertRequest{ID: "usr_a", UserID: "usr_b", Bio: "x"}
	profile, err := req.normalize()
	require.NoError(t, err)
	assert.Equal(t, "usr_a", profile.ID)
}

func TestUserUpsertLabelingAliasPrecedence(t *testing.T) {
	req := &userUpsertRequest{
		ID:                    "usr_1",
		Bio:                   "x",
		LabelingExperience:    boolPtr(false),
		HasLabelingExperience: boolPtr(true),
	}
	profile, err := req.normalize()
	require.NoError(t, err)
	assert.False(t, profile.HasLabelingExperience, "labeling_experience wins over later aliases")
}

func TestUserUpsertRejectsMalformedSubjectCodes(t *testing.T) {
	for _, code := range []string{"cardiology", "medical:", ":cardiology"} {
		req := &userUpsertRequest{ID: "usr_1", Bio: "x", SubjectMatterCodes: []string{code}}
		_, err := req.normalize()
		require.Error(t, err, "code %q", code)
		assert.Equal(t, common.CodeValidation, common.AsError(err).Code)
	}
}

func TestUserUpsertRequiresID(t *testing.T) {
	req := &userUpsertRequest{Bio: "x"}
	_, err := req.normalize()
	require.Error(t, err)
	assert.Equal(t, common.CodeValidation, common.AsError(err).Code)
}

func TestUserUpsertClampsNegativeYears(t *testing.T) {
	req := &userUpsertRequest{ID: "usr_1", Bio: "x", YearsExperience: -3}
	profile, err := req.normalize()
	require.NoError(t, err)
	assert.Equal(t, 0, profile.YearsExperience)
}

func TestJobUpsertNormalize(t *testing.T) {
	req := &jobUpsertRequest{
		JobID:       "job_1",
		Title:       " Radiology review ",
		Description: "Review annotations.",
		Countries:   []string{"US", "us", " DE "},
	}
	job, err := req.normalize()
	require.NoError(t, err)
	assert.Equal(t, "job_1", job.ID)
	assert.Equal(t, "Radiology review", job.Title)
	assert.Equal(t, []string{"US", "DE"}, job.Countries)
	assert.True(t, job.Active())
}

func TestJobUpsertRequiresDescription(t *testing.T) {
	req := &jobUpsertRequest{ID: "job_1", Title: "T"}
	_, err := req.normalize()
	require.Error(t, err)
	assert.Equal(t, common.CodeValidation, common.AsError(err).Code)
}
