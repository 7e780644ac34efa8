package model

// Candidate is a single election candidate as published in the object storage
// index file. Field names follow the JSON exported by the upstream scraper.
// Vote counts and ages are kept as opaque strings; they are displayed, never
// computed on.
type Candidate struct {
	Name               string `json:"name"`
	PartyName          string `json:"partyName"`
	CandidateRegNumber int    `json:"candidateRegNumber"`
	LastNumberOfVotes  string `json:"lastNumberOfVotes"`
	Education          string `json:"education"`
	Age                string `json:"age"`
	AdminUnit          string `json:"adminUnit"`
	District           string `json:"district"`
}

// Field returns the string value of a searchable field by its JSON name.
// The second return value is false for unknown or non-string fields.
func (c Candidate) Field(name string) (string, bool) {
	switch name {
	case FieldName:
		return c.Name, true
	case FieldPartyName:
		return c.PartyName, true
	case FieldAdminUnit:
		return c.AdminUnit, true
	case FieldDistrict:
		return c.District, true
	case FieldEducation:
		return c.Education, true
	case FieldAge:
		return c.Age, true
	case FieldLastNumberOfVotes:
		return c.LastNumberOfVotes, true
	default:
		return "", false
	}
}

// Candidate field names usable as search keys.
const (
	FieldName              = "name"
	FieldPartyName         = "partyName"
	FieldAdminUnit         = "adminUnit"
	FieldDistrict          = "district"
	FieldEducation         = "education"
	FieldAge               = "age"
	FieldLastNumberOfVotes = "lastNumberOfVotes"
)

// IsCandidateField reports whether name is a string field of Candidate.
func IsCandidateField(name string) bool {
	_, ok := Candidate{}.Field(name)
	return ok
}

// MatchResult is a candidate returned by the matcher together with its
// position in the ranked output and in the original corpus.
type MatchResult struct {
	Candidate   Candidate
	Rank        int
	CorpusIndex int
}
