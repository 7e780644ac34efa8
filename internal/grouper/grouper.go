// Package grouper folds ranked matches into the district / admin unit / party
// hierarchy consumed by the candidate table.
package grouper

import "github.com/gcbaptista/candidate-search/model"

// Options controls the fold.
type Options struct {
	// SortKeys orders keys alphabetically at every level instead of by first
	// appearance. Candidate order within a party never changes.
	SortKeys bool
}

// Keys returns the grouping path of c with empty values replaced by the
// sentinel labels.
func Keys(c model.Candidate) (district, adminUnit, party string) {
	district, adminUnit, party = c.District, c.AdminUnit, c.PartyName
	if district == "" {
		district = model.NoDistrict
	}
	if adminUnit == "" {
		adminUnit = model.NoAdminUnit
	}
	if party == "" {
		party = model.NoParty
	}
	return district, adminUnit, party
}

// Group folds results in order. Every result lands in exactly one party leaf
// and leaves keep the relative order of results.
func Group(results []model.MatchResult) *model.GroupedIndex {
	idx := model.NewGroupedIndex()
	for _, r := range results {
		district, adminUnit, party := Keys(r.Candidate)
		leaf := idx.District(district).AdminUnit(adminUnit).Party(party)
		leaf.Candidates = append(leaf.Candidates, r.Candidate)
	}
	return idx
}

// GroupWith folds results and applies opts.
func GroupWith(results []model.MatchResult, opts Options) *model.GroupedIndex {
	idx := Group(results)
	if opts.SortKeys {
		return idx.SortKeys()
	}
	return idx
}
