// Package requirements holds the canonical, user-editable job requirement model
// and the edit operations applied to it.
package requirements

import (
	"fmt"
	"strings"
)

// Priority is the importance bucket a requirement lives in.
type Priority string

const (
	MustHave   Priority = "MUST_HAVE"
	NiceToHave Priority = "NICE_TO_HAVE"
)

// Default point values applied when a requirement changes bucket.
const (
	DefaultMustHaveScore   = 10
	DefaultNiceToHaveScore = 5
)

// ParsePriority accepts the canonical values as well as the loose spellings
// produced by language models ("must have", "Nice-to-have").
func ParsePriority(s string) (Priority, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	switch Priority(normalized) {
	case MustHave:
		return MustHave, true
	case NiceToHave:
		return NiceToHave, true
	default:
		return "", false
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p == MustHave || p == NiceToHave
}

// DefaultScore returns the point value a requirement gets when moved into this bucket.
func (p Priority) DefaultScore() int {
	if p == MustHave {
		return DefaultMustHaveScore
	}
	return DefaultNiceToHaveScore
}

// Category groups requirements the way a posting presents them.
type Category string

const (
	Responsibilities       Category = "Responsibilities"
	TechnicalSkills        Category = "Technical Skills"
	SoftSkills             Category = "Soft Skills"
	Education              Category = "Education"
	Certifications         Category = "Certifications"
	Experience             Category = "Experience"
	AdditionalRequirements Category = "Additional Requirements"
)

// Categories lists every category in evaluation order.
var Categories = []Category{
	Responsibilities,
	TechnicalSkills,
	SoftSkills,
	Education,
	Certifications,
	Experience,
	AdditionalRequirements,
}

// ParseCategory maps free-text category names ("TechnicalSkills", "technical_skills")
// onto the canonical category.
func ParseCategory(s string) (Category, bool) {
	key := categoryKey(s)
	for _, c := range Categories {
		if categoryKey(string(c)) == key {
			return c, true
		}
	}
	return "", false
}

func categoryKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

// ExperienceID is the sentinel id of the requirement synthesized from the
// experience tuple.
const ExperienceID = "experience"

// Requirement is one atomic demand of a posting.
type Requirement struct {
	ID               string   `json:"id"`
	Description      string   `json:"description"`
	Priority         Priority `json:"priority"`
	Score            int      `json:"score"`
	OriginalScore    int      `json:"originalScore"`
	OriginalPriority Priority `json:"originalPriority"`
	IsUserAdded      bool     `json:"isUserAdded"`
}

// IsEdited reports whether the requirement diverged from its creation snapshot.
func (r Requirement) IsEdited() bool {
	return r.Score != r.OriginalScore || r.Priority != r.OriginalPriority
}

// GroupType decides how the members of a group are satisfied.
type GroupType string

const (
	GroupAny GroupType = "ANY"
	GroupAll GroupType = "ALL"
)

// Group is a set of requirements evaluated as one unit.
type Group struct {
	ID           string        `json:"id"`
	Type         GroupType     `json:"groupType"`
	Requirements []Requirement `json:"requirements"`
}

// Description is the synthesized text the judge receives for the group.
func (g *Group) Description() string {
	descriptions := make([]string, 0, len(g.Requirements))
	for _, r := range g.Requirements {
		descriptions = append(descriptions, strings.TrimSpace(r.Description))
	}
	if g.Type == GroupAll {
		return "All of: " + strings.Join(descriptions, " AND ")
	}
	return "Any of: " + strings.Join(descriptions, " OR ")
}

// PointValue is the highest member score for ANY groups and the sum of member
// scores for ALL groups.
func (g *Group) PointValue() int {
	total := 0
	for _, r := range g.Requirements {
		if g.Type == GroupAll {
			total += r.Score
			continue
		}
		if r.Score > total {
			total = r.Score
		}
	}
	return total
}

// Entry is either a single requirement or a group. Exactly one field is set.
type Entry struct {
	Requirement *Requirement `json:"requirement,omitempty"`
	Group       *Group       `json:"group,omitempty"`
}

// ID returns the id of whichever variant is set.
func (e Entry) ID() string {
	if e.Group != nil {
		return e.Group.ID
	}
	if e.Requirement != nil {
		return e.Requirement.ID
	}
	return ""
}

// Section holds the two priority buckets of a category.
type Section struct {
	MustHave   []Entry `json:"MUST_HAVE,omitempty"`
	NiceToHave []Entry `json:"NICE_TO_HAVE,omitempty"`
}

func (s *Section) bucket(p Priority) *[]Entry {
	if p == MustHave {
		return &s.MustHave
	}
	return &s.NiceToHave
}

// ExperienceRequirement is the minimum-years-plus-fields tuple of a posting.
type ExperienceRequirement struct {
	MinimumYears     int      `json:"minimumYears"`
	Fields           []string `json:"fields,omitempty"`
	Priority         Priority `json:"priority"`
	Score            int      `json:"score"`
	OriginalScore    int      `json:"originalScore"`
	OriginalPriority Priority `json:"originalPriority"`
}

// Description renders the "<years> in <fields>" text used as the match key.
func (e *ExperienceRequirement) Description() string {
	years := fmt.Sprintf("%d+ years", e.MinimumYears)
	fields := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return years + " of experience"
	}
	return years + " in " + strings.Join(fields, ", ")
}

// Model is the full structured posting.
type Model struct {
	JobTitle               string                 `json:"jobTitle,omitempty"`
	Responsibilities       Section                `json:"responsibilities"`
	TechnicalSkills        Section                `json:"technicalSkills"`
	SoftSkills             Section                `json:"softSkills"`
	Education              Section                `json:"education"`
	Certifications         Section                `json:"certifications"`
	AdditionalRequirements Section                `json:"additionalRequirements"`
	Experience             *ExperienceRequirement `json:"experience,omitempty"`
}

// Section returns the section of a category, or nil for Experience which is
// not bucketed.
func (m *Model) Section(c Category) *Section {
	switch c {
	case Responsibilities:
		return &m.Responsibilities
	case TechnicalSkills:
		return &m.TechnicalSkills
	case SoftSkills:
		return &m.SoftSkills
	case Education:
		return &m.Education
	case Certifications:
		return &m.Certifications
	case AdditionalRequirements:
		return &m.AdditionalRequirements
	default:
		return nil
	}
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	out := &Model{JobTitle: m.JobTitle}
	for _, c := range Categories {
		src := m.Section(c)
		if src == nil {
			continue
		}
		dst := out.Section(c)
		dst.MustHave = cloneEntries(src.MustHave)
		dst.NiceToHave = cloneEntries(src.NiceToHave)
	}
	if m.Experience != nil {
		exp := *m.Experience
		exp.Fields = append([]string(nil), m.Experience.Fields...)
		out.Experience = &exp
	}
	return out
}

func cloneEntries(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		switch {
		case e.Group != nil:
			g := *e.Group
			g.Requirements = append([]Requirement(nil), e.Group.Requirements...)
			out = append(out, Entry{Group: &g})
		case e.Requirement != nil:
			r := *e.Requirement
			out = append(out, Entry{Requirement: &r})
		}
	}
	return out
}
