package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/candidate-search/internal/grouper"
	testutil "github.com/gcbaptista/candidate-search/internal/testing"
	"github.com/gcbaptista/candidate-search/model"
)

func groupAll(candidates []model.Candidate) *model.GroupedIndex {
	results := make([]model.MatchResult, len(candidates))
	for i, c := range candidates {
		results[i] = model.MatchResult{Candidate: c, Rank: i, CorpusIndex: i}
	}
	return grouper.Group(results)
}

func TestTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, model.NewGroupedIndex(), Options{Query: "zzzz"}))
	assert.Equal(t, MessageNoResults+"\n", buf.String())

	buf.Reset()
	require.NoError(t, Table(&buf, nil, Options{Query: "  "}))
	assert.Equal(t, MessageNoQuery+"\n", buf.String())
}

func TestTable_Headings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, groupAll(testutil.SampleCandidates()), Options{Query: "x"}))
	out := buf.String()

	for _, want := range []string{
		"Harju", "Tallinn", "Erakond X (2)",
		"Tartumaa", "Tartu linn", "Eesti Reformierakond (1)", "ISAMAA Erakond (1)",
		"Lääne-Viru", "Rakvere", model.NoParty + " (1)",
		model.NoDistrict, model.NoAdminUnit, "Sotsiaaldemokraatlik Erakond (1)",
		"Kandidaadi nimi", "2021 hääled",
		"Anti Kaljumäe", "kõrgharidus", "1204", "101",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Harju"), strings.Index(out, "Tartumaa"), "districts keep index order")
	assert.NotContains(t, out, "\x1b[", "no colours when not writing to a terminal")
}

func TestTable_PerPartyLimit(t *testing.T) {
	var corpus []model.Candidate
	for i := 1; i <= 7; i++ {
		corpus = append(corpus, model.Candidate{
			Name: fmt.Sprintf("Kandidaat %d", i), PartyName: "Erakond X",
			CandidateRegNumber: 100 + i, District: "Harju", AdminUnit: "Tallinn",
		})
	}
	idx := groupAll(corpus)

	var buf bytes.Buffer
	require.NoError(t, Table(&buf, idx, Options{Query: "x"}))
	out := buf.String()
	assert.Contains(t, out, "Erakond X (7)", "heading counts every candidate")
	assert.Contains(t, out, "Kandidaat 5")
	assert.NotContains(t, out, "Kandidaat 6")

	buf.Reset()
	require.NoError(t, Table(&buf, idx, Options{Query: "x", PerParty: 2}))
	assert.NotContains(t, buf.String(), "Kandidaat 3")

	buf.Reset()
	require.NoError(t, Table(&buf, idx, Options{Query: "x", PerParty: -1}))
	assert.Contains(t, buf.String(), "Kandidaat 7")
}

func TestPartyColor(t *testing.T) {
	assert.Equal(t, lipgloss.Color("33"), PartyColor("ISAMAA Erakond"))
	assert.Equal(t, lipgloss.Color("160"), PartyColor("Sotsiaaldemokraatlik Erakond"))
	assert.Equal(t, defaultPartyColor, PartyColor("Erakond X"))
	assert.Equal(t, defaultPartyColor, PartyColor(model.NoParty))
}

func TestEmptyMessage(t *testing.T) {
	assert.Equal(t, MessageNoQuery, EmptyMessage(""))
	assert.Equal(t, MessageNoResults, EmptyMessage("Tamm"))
}
