package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguagesProficiencySuffix(t *testing.T) {
	got := NormalizeLanguages([]string{"Slovak – Proficiency Level = Native"})
	assert.Equal(t, []string{"Slovak"}, got)
}

func TestNormalizeLanguagesCommaSplit(t *testing.T) {
	got := NormalizeLanguages([]string{"English, French - Proficiency Level = Fluent", "german"})
	assert.Equal(t, []string{"English", "French", "german"}, got)
}

func TestNormalizeLanguagesDedupCaseInsensitive(t *testing.T) {
	got := NormalizeLanguages([]string{"English", "english", "ENGLISH"})
	assert.Equal(t, []string{"English"}, got)
}

func TestNormalizeLanguagesDropsEmpty(t *testing.T) {
	got := NormalizeLanguages([]string{"", "  ", "English"})
	assert.Equal(t, []string{"English"}, got)
}

func TestNormalizeStrings(t *testing.T) {
	got := NormalizeStrings([]string{" US ", "us", "", "DE"})
	assert.Equal(t, []string{"US", "DE"}, got)
}

func TestSpecialtyOf(t *testing.T) {
	assert.Equal(t, "cardiology", SpecialtyOf("medical:cardiology"))
	assert.Equal(t, "cardiology", SpecialtyOf("medical: cardiology "))
	assert.Equal(t, "cardiology", SpecialtyOf("cardiology"))
}

func TestJobPostingActiveDefault(t *testing.T) {
	j := &JobPosting{ID: "job_1"}
	assert.True(t, j.Active())

	f := false
	j.IsActive = &f
	assert.False(t, j.Active())
}

func TestQualificationKey(t *testing.T) {
	assert.Equal(t, "job_1|usr_2", QualificationKey("job_1", "usr_2"))
}

func TestUserProfileIsEmpty(t *testing.T) {
	assert.True(t, (&UserProfile{ID: "u"}).IsEmpty())
	assert.False(t, (&UserProfile{ID: "u", Bio: "x"}).IsEmpty())
	assert.False(t, (&UserProfile{ID: "u", Skills: []string{"tagging"}}).IsEmpty())
}
