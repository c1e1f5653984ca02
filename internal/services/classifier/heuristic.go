package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/aptus/internal/models"
)

// fallbackConfidence marks heuristic results so alerting can spot
// classifier degradation.
const fallbackConfidence = 0.5

// professionalCredentials maps recognized credentials to the subject code
// the heuristic assigns. Presence of any of these makes a job
// specialized.
var professionalCredentials = map[string]string{
	"MD":     "medicine:clinical",
	"PHD":    "academia:research",
	"JD":     "law:legal",
	"PE":     "engineering:professional",
	"CPA":    "finance:accounting",
	"RN":     "medicine:nursing",
	"NP":     "medicine:nursing",
	"PHARMD": "medicine:pharmacy",
	"DDS":    "medicine:dentistry",
	"DMD":    "medicine:dentistry",
}

// regulatedTitles are professional titles that imply a specialized job
// even without an explicit credential.
var regulatedTitles = map[string]string{
	"radiologist":         "medicine:radiology",
	"surgeon":             "medicine:surgery",
	"cardiologist":        "medicine:cardiology",
	"pathologist":         "medicine:pathology",
	"oncologist":          "medicine:oncology",
	"psychiatrist":        "medicine:psychiatry",
	"physician":           "medicine:clinical",
	"pharmacist":          "medicine:pharmacy",
	"dentist":             "medicine:dentistry",
	"nurse practitioner":  "medicine:nursing",
	"attorney":            "law:legal",
	"lawyer":              "law:legal",
	"paralegal":           "law:legal",
	"actuary":             "finance:actuarial",
	"auditor":             "finance:accounting",
	"structural engineer": "engineering:structural",
}

// genericTaskTerms is the vocabulary of plain annotation work.
var genericTaskTerms = []string{
	"bounding box",
	"tagging",
	"data entry",
	"entry-level",
	"entry level",
	"annotation",
	"labeling",
	"labelling",
	"transcription",
	"categorization",
	"image classification",
}

var experienceYearsRe = regexp.MustCompile(`(\d+)\s*\+?\s*years?`)

// classifyJobHeuristic is the deterministic fallback used whenever the
// LLM path fails. It encodes the same contractual rules the LLM prompt
// asks for, at fixed confidence 0.5.
func classifyJobHeuristic(job *models.JobPosting) *models.JobClassification {
	text := strings.ToLower(job.Title + " " + job.Description)

	credentials := detectCredentials(job.Title + " " + job.Description)
	codes := make([]string, 0, 4)
	for _, cred := range credentials {
		if code, ok := professionalCredentials[strings.ToUpper(cred)]; ok {
			codes = append(codes, code)
		}
	}
	for title, code := range regulatedTitles {
		if strings.Contains(text, title) {
			codes = append(codes, code)
		}
	}
	codes = models.NormalizeStrings(codes)

	specialized := len(credentials) > 0 || len(codes) > 0

	// Non-English pure-annotation work without credentials is generic
	// regardless of wording elsewhere.
	if specialized && len(credentials) == 0 && isPureAnnotation(text) && hasNonEnglishLanguage(job.Languages) {
		specialized = false
	}
	if !specialized || (len(credentials) == 0 && hasGenericVocabulary(text) && len(codes) == 0) {
		specialized = false
	}

	class := models.JobClassGeneric
	tier := models.TierIntermediate
	if specialized {
		class = models.JobClassSpecialized
		tier = models.TierSpecialist
	} else {
		// Generic jobs never carry subject codes.
		codes = nil
		if strings.Contains(text, "entry-level") || strings.Contains(text, "entry level") {
			tier = models.TierEntry
		}
	}

	return &models.JobClassification{
		JobClass:   class,
		Confidence: fallbackConfidence,
		Requirements: models.JobRequirements{
			Credentials:             credentials,
			MinimumExperienceYears:  detectExperienceYears(text),
			SubjectMatterCodes:      codes,
			AcceptableSubjectCodes:  nil,
			SubjectMatterStrictness: models.StrictnessModerate,
			ExpertiseTier:           tier,
			Countries:               job.Countries,
			Languages:               job.Languages,
		},
		Reasoning: "heuristic classification",
		Source:    models.SourceFallback,
	}
}

// classifyUserHeuristic mirrors the job fallback for profiles.
func classifyUserHeuristic(profile *models.UserProfile) *models.UserClassification {
	credentials := models.NormalizeStrings(append(
		detectCredentials(profile.Bio),
		profile.Credentials...,
	))

	tier := models.TierEntry
	switch years := profile.YearsExperience; {
	case len(credentials) > 0 || years >= 10:
		tier = models.TierSpecialist
	case years >= 5:
		tier = models.TierExpert
	case years >= 2:
		tier = models.TierIntermediate
	}

	return &models.UserClassification{
		ExpertiseTier:         tier,
		Credentials:           credentials,
		SubjectMatterCodes:    models.NormalizeStrings(profile.SubjectMatterCodes),
		YearsExperience:       profile.YearsExperience,
		HasLabelingExperience: profile.HasLabelingExperience,
		Confidence:            fallbackConfidence,
		Source:                models.SourceFallback,
	}
}

// detectCredentials finds credential tokens on word boundaries so "MD"
// does not match inside "command".
func detectCredentials(text string) []string {
	found := make([]string, 0, 2)
	for _, token := range regexp.MustCompile(`[A-Za-z]+`).FindAllString(text, -1) {
		if _, ok := professionalCredentials[strings.ToUpper(token)]; !ok {
			continue
		}
		// Lowercase prose words like "phd" still count; ordinary words
		// like "Rn" inside sentences are rare enough to accept.
		found = append(found, strings.ToUpper(token))
	}
	return models.NormalizeStrings(found)
}

func hasGenericVocabulary(text string) bool {
	for _, term := range genericTaskTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func isPureAnnotation(text string) bool {
	for _, term := range []string{"annotation", "labeling", "labelling", "transcription"} {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func hasNonEnglishLanguage(languages []string) bool {
	for _, lang := range languages {
		if !strings.EqualFold(strings.TrimSpace(lang), "english") {
			return true
		}
	}
	return false
}

func detectExperienceYears(text string) int {
	match := experienceYearsRe.FindStringSubmatch(text)
	if len(match) < 2 {
		return 0
	}
	years, err := strconv.Atoi(match[1])
	if err != nil || years < 0 || years > 60 {
		return 0
	}
	return years
}
