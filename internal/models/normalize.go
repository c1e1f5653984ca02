package models

import "strings"

// proficiencySeparators are the suffixes marketplaces append to language
// names, e.g. "Slovak – Proficiency Level = Native".
var proficiencySeparators = []string{
	" – Proficiency",
	" - Proficiency",
	"– Proficiency",
	"- Proficiency",
}

// NormalizeLanguages canonicalizes a raw language list: entries are split
// on commas, proficiency suffixes are stripped, whitespace trimmed, and
// duplicates removed case-insensitively while preserving the casing of
// the first occurrence.
func NormalizeLanguages(raw []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(raw))

	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			lang := part
			for _, sep := range proficiencySeparators {
				if idx := strings.Index(lang, sep); idx >= 0 {
					lang = lang[:idx]
				}
			}
			lang = strings.TrimSpace(lang)
			if lang == "" {
				continue
			}
			key := strings.ToLower(lang)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, lang)
		}
	}
	return out
}

// NormalizeStrings trims and dedups a string list case-insensitively,
// preserving order and casing of first occurrences.
func NormalizeStrings(raw []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		s := strings.TrimSpace(entry)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SpecialtyOf extracts the specialty part of a "domain:specialty" code.
// Codes without a colon are returned whole.
func SpecialtyOf(code string) string {
	if _, specialty, found := strings.Cut(code, ":"); found {
		return strings.TrimSpace(specialty)
	}
	return strings.TrimSpace(code)
}
