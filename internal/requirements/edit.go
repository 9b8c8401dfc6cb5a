package requirements

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("requirement not found")
	ErrNotUserAdded    = errors.New("only user-added requirements can be deleted")
	ErrNegativeScore   = errors.New("score must not be negative")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrEmptyText       = errors.New("requirement description is required")
	ErrGroupMember     = errors.New("group members cannot change priority on their own; change the group instead")
	ErrGroupScore      = errors.New("group score is derived from its members")
)

// MutationKind names the edit that produced a Mutation.
type MutationKind string

const (
	MutationAdd      MutationKind = "add"
	MutationDelete   MutationKind = "delete"
	MutationPriority MutationKind = "priority"
	MutationScore    MutationKind = "score"
)

// Mutation is the signal every successful edit returns. Sessions consume it to
// invalidate previously computed results.
type Mutation struct {
	Kind          MutationKind
	RequirementID string
}

// newID is swapped in tests for deterministic ids.
var newID = uuid.NewString

// NewRequirement builds an extractor-derived requirement with its creation snapshot.
func NewRequirement(description string, priority Priority, score int) Requirement {
	return Requirement{
		ID:               newID(),
		Description:      strings.TrimSpace(description),
		Priority:         priority,
		Score:            score,
		OriginalScore:    score,
		OriginalPriority: priority,
	}
}

// AddRequirement appends a user-added requirement to Additional Requirements.
func (m *Model) AddRequirement(description string, priority Priority, score int) (Requirement, Mutation, error) {
	if strings.TrimSpace(description) == "" {
		return Requirement{}, Mutation{}, ErrEmptyText
	}
	if !priority.Valid() {
		return Requirement{}, Mutation{}, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}
	if score < 0 {
		return Requirement{}, Mutation{}, ErrNegativeScore
	}

	req := NewRequirement(description, priority, score)
	for m.hasID(req.ID) {
		req.ID = newID()
	}
	req.IsUserAdded = true

	bucket := m.AdditionalRequirements.bucket(priority)
	stored := req
	*bucket = append(*bucket, Entry{Requirement: &stored})

	return req, Mutation{Kind: MutationAdd, RequirementID: req.ID}, nil
}

// ChangePriority moves a requirement (or a whole group) into the other bucket of
// its category and resets its score to the bucket default.
func (m *Model) ChangePriority(id string, priority Priority) (Mutation, error) {
	if !priority.Valid() {
		return Mutation{}, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}

	if id == ExperienceID {
		if m.Experience == nil {
			return Mutation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		m.Experience.Priority = priority
		m.Experience.Score = priority.DefaultScore()
		return Mutation{Kind: MutationPriority, RequirementID: id}, nil
	}

	loc, ok := m.locate(id)
	if !ok {
		return Mutation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if loc.member >= 0 {
		return Mutation{}, fmt.Errorf("%w: %s", ErrGroupMember, id)
	}

	section := m.Section(loc.category)
	source := section.bucket(loc.priority)
	entry := (*source)[loc.index]
	*source = append((*source)[:loc.index:loc.index], (*source)[loc.index+1:]...)

	if entry.Group != nil {
		for i := range entry.Group.Requirements {
			entry.Group.Requirements[i].Priority = priority
			entry.Group.Requirements[i].Score = priority.DefaultScore()
		}
	} else {
		entry.Requirement.Priority = priority
		entry.Requirement.Score = priority.DefaultScore()
	}

	target := section.bucket(priority)
	*target = append(*target, entry)

	return Mutation{Kind: MutationPriority, RequirementID: id}, nil
}

// ChangeScore sets the point value of a requirement in place.
func (m *Model) ChangeScore(id string, score int) (Mutation, error) {
	if score < 0 {
		return Mutation{}, ErrNegativeScore
	}

	if id == ExperienceID {
		if m.Experience == nil {
			return Mutation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		m.Experience.Score = score
		return Mutation{Kind: MutationScore, RequirementID: id}, nil
	}

	loc, ok := m.locate(id)
	if !ok {
		return Mutation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	entry := (*m.Section(loc.category).bucket(loc.priority))[loc.index]
	switch {
	case loc.member >= 0:
		entry.Group.Requirements[loc.member].Score = score
	case entry.Group != nil:
		return Mutation{}, fmt.Errorf("%w: %s", ErrGroupScore, id)
	default:
		entry.Requirement.Score = score
	}

	return Mutation{Kind: MutationScore, RequirementID: id}, nil
}

// DeleteRequirement removes a user-added requirement. Extractor-derived
// requirements are kept for the audit trail and must be re-scored instead.
func (m *Model) DeleteRequirement(id string) (Mutation, error) {
	if id == ExperienceID {
		if m.Experience == nil {
			return Mutation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Mutation{}, fmt.Errorf("%w: %s", ErrNotUserAdded, id)
	}

	loc, ok := m.locate(id)
	if !ok {
		return Mutation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	bucket := m.Section(loc.category).bucket(loc.priority)
	entry := (*bucket)[loc.index]
	if loc.member >= 0 || entry.Group != nil || !entry.Requirement.IsUserAdded {
		return Mutation{}, fmt.Errorf("%w: %s", ErrNotUserAdded, id)
	}

	*bucket = append((*bucket)[:loc.index:loc.index], (*bucket)[loc.index+1:]...)

	return Mutation{Kind: MutationDelete, RequirementID: id}, nil
}

// Find returns a copy of the requirement with the given id, including group
// members and the synthesized experience requirement.
func (m *Model) Find(id string) (Requirement, bool) {
	if id == ExperienceID && m.Experience != nil {
		return Requirement{
			ID:               ExperienceID,
			Description:      m.Experience.Description(),
			Priority:         m.Experience.Priority,
			Score:            m.Experience.Score,
			OriginalScore:    m.Experience.OriginalScore,
			OriginalPriority: m.Experience.OriginalPriority,
		}, true
	}

	loc, ok := m.locate(id)
	if !ok {
		return Requirement{}, false
	}
	entry := (*m.Section(loc.category).bucket(loc.priority))[loc.index]
	switch {
	case loc.member >= 0:
		return entry.Group.Requirements[loc.member], true
	case entry.Requirement != nil:
		return *entry.Requirement, true
	default:
		return Requirement{}, false
	}
}

type location struct {
	category Category
	priority Priority
	index    int
	// member is the position inside a group, -1 for top-level entries.
	member int
}

func (m *Model) locate(id string) (location, bool) {
	if id == "" {
		return location{}, false
	}
	for _, c := range Categories {
		section := m.Section(c)
		if section == nil {
			continue
		}
		for _, p := range []Priority{MustHave, NiceToHave} {
			for i, e := range *section.bucket(p) {
				if e.ID() == id {
					return location{category: c, priority: p, index: i, member: -1}, true
				}
				if e.Group == nil {
					continue
				}
				for j, r := range e.Group.Requirements {
					if r.ID == id {
						return location{category: c, priority: p, index: i, member: j}, true
					}
				}
			}
		}
	}
	return location{}, false
}

func (m *Model) hasID(id string) bool {
	if id == ExperienceID {
		return true
	}
	_, ok := m.locate(id)
	return ok
}
