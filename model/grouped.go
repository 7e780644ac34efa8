package model

import "sort"

// Labels substituted for empty grouping keys.
const (
	NoDistrict  = "No District"
	NoAdminUnit = "No Admin Unit"
	NoParty     = "No Party"
)

// GroupedIndex is the district -> admin unit -> party -> candidates hierarchy
// produced from a ranked match list. Every level keeps first-seen order.
type GroupedIndex struct {
	Districts []*DistrictGroup `json:"districts"`
	position  map[string]int
}

// DistrictGroup holds the admin units seen for one district.
type DistrictGroup struct {
	Name       string            `json:"name"`
	AdminUnits []*AdminUnitGroup `json:"admin_units"`
	position   map[string]int
}

// AdminUnitGroup holds the parties seen for one admin unit.
type AdminUnitGroup struct {
	Name     string        `json:"name"`
	Parties  []*PartyGroup `json:"parties"`
	position map[string]int
}

// PartyGroup is a leaf: the candidates of one party in one admin unit, in
// matcher order.
type PartyGroup struct {
	Name       string      `json:"name"`
	Candidates []Candidate `json:"candidates"`
}

// NewGroupedIndex returns an empty index.
func NewGroupedIndex() *GroupedIndex {
	return &GroupedIndex{
		Districts: make([]*DistrictGroup, 0),
		position:  make(map[string]int),
	}
}

// District returns the group for name, creating it on first use.
func (g *GroupedIndex) District(name string) *DistrictGroup {
	if g.position == nil {
		g.position = make(map[string]int)
	}
	if i, ok := g.position[name]; ok {
		return g.Districts[i]
	}
	d := &DistrictGroup{Name: name, AdminUnits: make([]*AdminUnitGroup, 0), position: make(map[string]int)}
	g.position[name] = len(g.Districts)
	g.Districts = append(g.Districts, d)
	return d
}

// AdminUnit returns the group for name, creating it on first use.
func (d *DistrictGroup) AdminUnit(name string) *AdminUnitGroup {
	if d.position == nil {
		d.position = make(map[string]int)
	}
	if i, ok := d.position[name]; ok {
		return d.AdminUnits[i]
	}
	a := &AdminUnitGroup{Name: name, Parties: make([]*PartyGroup, 0), position: make(map[string]int)}
	d.position[name] = len(d.AdminUnits)
	d.AdminUnits = append(d.AdminUnits, a)
	return a
}

// Party returns the leaf for name, creating it on first use.
func (a *AdminUnitGroup) Party(name string) *PartyGroup {
	if a.position == nil {
		a.position = make(map[string]int)
	}
	if i, ok := a.position[name]; ok {
		return a.Parties[i]
	}
	p := &PartyGroup{Name: name, Candidates: make([]Candidate, 0, 1)}
	a.position[name] = len(a.Parties)
	a.Parties = append(a.Parties, p)
	return p
}

// IsEmpty reports whether the index has no districts. An empty index is the
// only "no results" signal.
func (g *GroupedIndex) IsEmpty() bool {
	return g == nil || len(g.Districts) == 0
}

// Len returns the number of candidates across all leaves.
func (g *GroupedIndex) Len() int {
	n := 0
	g.Walk(func(_, _, _ string, _ Candidate) { n++ })
	return n
}

// Walk calls fn for every candidate in enumeration order.
func (g *GroupedIndex) Walk(fn func(district, adminUnit, party string, c Candidate)) {
	if g == nil {
		return
	}
	for _, d := range g.Districts {
		for _, a := range d.AdminUnits {
			for _, p := range a.Parties {
				for _, c := range p.Candidates {
					fn(d.Name, a.Name, p.Name, c)
				}
			}
		}
	}
}

// Lookup returns the candidates stored at the given path, or nil.
func (g *GroupedIndex) Lookup(district, adminUnit, party string) []Candidate {
	if g == nil {
		return nil
	}
	di, ok := g.position[district]
	if !ok {
		return nil
	}
	d := g.Districts[di]
	ai, ok := d.position[adminUnit]
	if !ok {
		return nil
	}
	a := d.AdminUnits[ai]
	pi, ok := a.position[party]
	if !ok {
		return nil
	}
	return a.Parties[pi].Candidates
}

// SortKeys returns a copy of the index with district, admin unit and party
// keys sorted alphabetically. Candidate order inside each leaf is unchanged.
func (g *GroupedIndex) SortKeys() *GroupedIndex {
	out := NewGroupedIndex()
	if g == nil {
		return out
	}
	g.Walk(func(district, adminUnit, party string, c Candidate) {
		leaf := out.District(district).AdminUnit(adminUnit).Party(party)
		leaf.Candidates = append(leaf.Candidates, c)
	})

	sort.SliceStable(out.Districts, func(i, j int) bool { return out.Districts[i].Name < out.Districts[j].Name })
	out.reindex()
	for _, d := range out.Districts {
		sort.SliceStable(d.AdminUnits, func(i, j int) bool { return d.AdminUnits[i].Name < d.AdminUnits[j].Name })
		d.reindex()
		for _, a := range d.AdminUnits {
			sort.SliceStable(a.Parties, func(i, j int) bool { return a.Parties[i].Name < a.Parties[j].Name })
			a.reindex()
		}
	}
	return out
}

func (g *GroupedIndex) reindex() {
	for i, d := range g.Districts {
		g.position[d.Name] = i
	}
}

func (d *DistrictGroup) reindex() {
	for i, a := range d.AdminUnits {
		d.position[a.Name] = i
	}
}

func (a *AdminUnitGroup) reindex() {
	for i, p := range a.Parties {
		a.position[p.Name] = i
	}
}
