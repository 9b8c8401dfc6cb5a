package requirements

// Canonical is one flattened, evaluable requirement. Groups and the experience
// tuple are each synthesized into a single canonical entry.
type Canonical struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Priority    Priority  `json:"priority"`
	PointValue  int       `json:"pointValue"`
	IsGroup     bool      `json:"isGroup,omitempty"`
	GroupType   GroupType `json:"groupType,omitempty"`
}

// Canonical flattens the model in category order, MUST_HAVE before
// NICE_TO_HAVE within each category.
func (m *Model) Canonical() []Canonical {
	var out []Canonical
	for _, c := range Categories {
		if c == Experience {
			if m.Experience != nil {
				out = append(out, Canonical{
					ID:          ExperienceID,
					Description: m.Experience.Description(),
					Category:    Experience,
					Priority:    m.Experience.Priority,
					PointValue:  m.Experience.Score,
				})
			}
			continue
		}

		section := m.Section(c)
		for _, p := range []Priority{MustHave, NiceToHave} {
			for _, e := range *section.bucket(p) {
				switch {
				case e.Group != nil:
					out = append(out, Canonical{
						ID:          e.Group.ID,
						Description: e.Group.Description(),
						Category:    c,
						Priority:    p,
						PointValue:  e.Group.PointValue(),
						IsGroup:     true,
						GroupType:   e.Group.Type,
					})
				case e.Requirement != nil:
					out = append(out, Canonical{
						ID:          e.Requirement.ID,
						Description: e.Requirement.Description,
						Category:    c,
						Priority:    p,
						PointValue:  e.Requirement.Score,
					})
				}
			}
		}
	}
	return out
}

// TotalPoints is the sum of every canonical point value.
func (m *Model) TotalPoints() int {
	total := 0
	for _, c := range m.Canonical() {
		total += c.PointValue
	}
	return total
}
