// Package config provides configuration structures for the candidate search service.
// It defines matcher tuning, grouping behaviour, object storage access and server options.
package config

import (
	"fmt"
	"strings"

	"github.com/gcbaptista/candidate-search/model"
)

// Default matcher tuning. These mirror the values the candidate table has
// always been served with: four keys, a strict threshold and results sorted by
// relevance.
const (
	DefaultThreshold      = 0.1
	DefaultDistance       = 100
	DefaultMinQueryLength = 2
)

// DefaultKeys are the candidate fields searched, in order.
var DefaultKeys = []string{model.FieldName, model.FieldPartyName, model.FieldAdminUnit, model.FieldDistrict}

// SearchKey is a candidate field that contributes to matching.
type SearchKey struct {
	Field  string  `json:"field"`
	Weight float64 `json:"weight"` // Relative weight, 1 when unset
}

// MatcherSettings configures the fuzzy matcher.
//
// Threshold is the highest field score still accepted: 0 means exact
// substring at the start of the field, 1 matches anything. Nil takes
// DefaultThreshold. The score of a
// field is errors/len(query) + offset/Distance, so with the defaults a short
// query must appear verbatim within the first few characters of a field.
type MatcherSettings struct {
	Keys             []SearchKey `json:"keys"`
	Threshold        *float64    `json:"threshold,omitempty"`
	Distance         int         `json:"distance"`
	MinQueryLength   int         `json:"min_query_length"`
	CaseSensitive    bool        `json:"case_sensitive"`
	IgnoreDiacritics bool        `json:"ignore_diacritics"` // Treat "ä" and "a" as the same letter
}

// GroupingSettings configures how matches are folded into the grouped index.
type GroupingSettings struct {
	// SortKeys sorts district, admin unit and party keys alphabetically.
	// Off by default: keys appear in the order their first match was seen.
	SortKeys bool `json:"sort_keys"`
	// PerParty caps the number of candidates shown per party by consumers.
	// 0 means no cap.
	PerParty int `json:"per_party"`
}

// DefaultPerParty is the number of candidates rendered per party.
const DefaultPerParty = 5

// NewMatcherSettings returns matcher settings with every default applied.
func NewMatcherSettings() MatcherSettings {
	s := MatcherSettings{}
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills unset values with their defaults
func (s *MatcherSettings) ApplyDefaults() {
	if len(s.Keys) == 0 {
		s.Keys = make([]SearchKey, len(DefaultKeys))
		for i, field := range DefaultKeys {
			s.Keys[i] = SearchKey{Field: field, Weight: 1}
		}
	}
	for i := range s.Keys {
		if s.Keys[i].Weight == 0 {
			s.Keys[i].Weight = 1
		}
	}
	if s.Threshold == nil {
		s.Threshold = Float64(DefaultThreshold)
	}
	if s.Distance == 0 {
		s.Distance = DefaultDistance
	}
	if s.MinQueryLength == 0 {
		s.MinQueryLength = DefaultMinQueryLength
	}
}

// Validate returns every problem found in the settings.
func (s *MatcherSettings) Validate() []string {
	var problems []string

	fields := make([]string, len(s.Keys))
	for i, key := range s.Keys {
		fields[i] = key.Field
		if strings.TrimSpace(key.Field) == "" {
			problems = append(problems, "Field name cannot be empty or whitespace-only")
			continue
		}
		if !model.IsCandidateField(key.Field) {
			problems = append(problems, "Field '"+key.Field+"' in keys is not a searchable candidate field")
		}
		if key.Weight < 0 {
			problems = append(problems, fmt.Sprintf("Weight for field '%s' must not be negative", key.Field))
		}
	}
	problems = append(problems, checkDuplicates("keys", fields)...)

	if s.Threshold != nil && (*s.Threshold < 0 || *s.Threshold > 1) {
		problems = append(problems, fmt.Sprintf("Threshold %.3f is out of range [0, 1]", *s.Threshold))
	}
	if s.Distance < 0 {
		problems = append(problems, "Distance must be positive")
	}
	if s.MinQueryLength < 0 {
		problems = append(problems, "Min query length must not be negative")
	}
	return problems
}

// ThresholdValue returns the configured threshold or DefaultThreshold.
func (s MatcherSettings) ThresholdValue() float64 {
	if s.Threshold == nil {
		return DefaultThreshold
	}
	return *s.Threshold
}

// Float64 returns a pointer to v, for optional settings.
func Float64(v float64) *float64 {
	return &v
}

// checkDuplicates checks for duplicate values in a slice and returns error messages
func checkDuplicates(fieldName string, fields []string) []string {
	var errors []string
	seen := make(map[string]bool)

	for _, field := range fields {
		if seen[field] {
			errors = append(errors, "Duplicate field '"+field+"' found in "+fieldName)
		}
		seen[field] = true
	}

	return errors
}
