// Package render prints grouped search results as terminal tables.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gcbaptista/candidate-search/model"
)

// DefaultPerParty is how many candidates are shown under each party heading
const DefaultPerParty = 5

const (
	MessageNoResults = "No candidates found matching your search."
	MessageNoQuery   = "No query entered."
)

var headers = []string{"#", "Kandidaadi nimi", "Vanus", "Haridus", "2021 hääled"}

// partyColors maps party names to their heading colour
var partyColors = map[string]lipgloss.Color{
	"ISAMAA Erakond":                    lipgloss.Color("33"),  // blue
	"Eesti Reformierakond":              lipgloss.Color("220"), // yellow
	"Eesti Keskerakond":                 lipgloss.Color("34"),  // green
	"Sotsiaaldemokraatlik Erakond":      lipgloss.Color("160"), // red
	"Eesti Konservatiivne Rahvaerakond": lipgloss.Color("93"),  // purple
	"Erakond Eesti 200":                 lipgloss.Color("214"), // amber
	"Üksikkandidaadid":                  lipgloss.Color("245"),
}

const defaultPartyColor = lipgloss.Color("245")

// PartyColor returns the heading colour for a party
func PartyColor(party string) lipgloss.Color {
	if c, ok := partyColors[party]; ok {
		return c
	}
	return defaultPartyColor
}

// Options controls table output
type Options struct {
	// PerParty caps rows per party; 0 means DefaultPerParty, negative shows all
	PerParty int
	// Query is the query that produced the index, used for the empty message
	Query string
}

type styles struct {
	district  lipgloss.Style
	adminUnit lipgloss.Style
	party     lipgloss.Style
	header    lipgloss.Style
	cell      lipgloss.Style
	muted     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		district:  r.NewStyle().Bold(true).Underline(true),
		adminUnit: r.NewStyle().Faint(true),
		party:     r.NewStyle().Bold(true),
		header:    r.NewStyle().Bold(true).Padding(0, 1),
		cell:      r.NewStyle().Padding(0, 1),
		muted:     r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// EmptyMessage returns the text shown when idx has no candidates
func EmptyMessage(query string) string {
	if strings.TrimSpace(query) == "" {
		return MessageNoQuery
	}
	return MessageNoResults
}

// Table writes idx to w. Colours are only emitted when w is a terminal.
func Table(w io.Writer, idx *model.GroupedIndex, opts Options) error {
	if idx.IsEmpty() {
		_, err := fmt.Fprintln(w, EmptyMessage(opts.Query))
		return err
	}

	limit := opts.PerParty
	if limit == 0 {
		limit = DefaultPerParty
	}

	st := newStyles(lipgloss.NewRenderer(w))
	var sb strings.Builder

	for _, district := range idx.Districts {
		sb.WriteString(st.district.Render(district.Name))
		sb.WriteString("\n")
		for _, adminUnit := range district.AdminUnits {
			sb.WriteString(st.adminUnit.Render(adminUnit.Name))
			sb.WriteString("\n")
			for _, party := range adminUnit.Parties {
				heading := fmt.Sprintf("%s (%d)", party.Name, len(party.Candidates))
				sb.WriteString(st.party.Foreground(PartyColor(party.Name)).Render(heading))
				sb.WriteString("\n")

				shown := party.Candidates
				if limit > 0 && len(shown) > limit {
					shown = shown[:limit]
				}
				writeRows(&sb, st, shown)
			}
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeRows(sb *strings.Builder, st styles, candidates []model.Candidate) {
	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, []string{
			strconv.Itoa(c.CandidateRegNumber),
			c.Name,
			c.Age,
			c.Education,
			c.LastNumberOfVotes,
		})
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}
	// Width includes the padding
	total := len(headers) - 1
	for i := range colWidths {
		colWidths[i] += 2
		total += colWidths[i]
	}

	sep := st.muted.Render("|")
	for i, h := range headers {
		sb.WriteString(st.header.Width(colWidths[i]).Render(h))
		if i < len(headers)-1 {
			sb.WriteString(sep)
		}
	}
	sb.WriteString("\n")
	sb.WriteString(st.muted.Render(strings.Repeat("-", total)))
	sb.WriteString("\n")

	for _, row := range rows {
		for i, cell := range row {
			sb.WriteString(st.cell.Width(colWidths[i]).Render(cell))
			if i < len(row)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}
}
