package requirements

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the structural invariants of the model and returns every
// violation found, joined.
func (m *Model) Validate() error {
	var errs []error
	seen := map[string]string{ExperienceID: "experience"}

	claim := func(id, where string) {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fmt.Errorf("%s: empty id", where))
			return
		}
		if prev, ok := seen[id]; ok {
			errs = append(errs, fmt.Errorf("%s: duplicate id %q (also used by %s)", where, id, prev))
			return
		}
		seen[id] = where
	}

	checkRequirement := func(r Requirement, bucket Priority, where string) {
		claim(r.ID, where)
		if strings.TrimSpace(r.Description) == "" {
			errs = append(errs, fmt.Errorf("%s: %w", where, ErrEmptyText))
		}
		if r.Score < 0 {
			errs = append(errs, fmt.Errorf("%s: %w", where, ErrNegativeScore))
		}
		if r.Priority != bucket {
			errs = append(errs, fmt.Errorf("%s: priority %q does not match bucket %q", where, r.Priority, bucket))
		}
	}

	for _, c := range Categories {
		section := m.Section(c)
		if section == nil {
			continue
		}
		for _, p := range []Priority{MustHave, NiceToHave} {
			for i, e := range *section.bucket(p) {
				where := fmt.Sprintf("%s/%s[%d]", c, p, i)
				switch {
				case e.Group != nil && e.Requirement != nil:
					errs = append(errs, fmt.Errorf("%s: entry holds both a requirement and a group", where))
				case e.Group != nil:
					claim(e.Group.ID, where)
					if e.Group.Type != GroupAny && e.Group.Type != GroupAll {
						errs = append(errs, fmt.Errorf("%s: invalid group type %q", where, e.Group.Type))
					}
					if len(e.Group.Requirements) == 0 {
						errs = append(errs, fmt.Errorf("%s: group has no requirements", where))
					}
					for j, r := range e.Group.Requirements {
						checkRequirement(r, p, fmt.Sprintf("%s.requirements[%d]", where, j))
					}
				case e.Requirement != nil:
					checkRequirement(*e.Requirement, p, where)
				default:
					errs = append(errs, fmt.Errorf("%s: empty entry", where))
				}
			}
		}
	}

	if exp := m.Experience; exp != nil {
		if exp.MinimumYears < 0 {
			errs = append(errs, errors.New("experience: minimum years must not be negative"))
		}
		if exp.Score < 0 {
			errs = append(errs, fmt.Errorf("experience: %w", ErrNegativeScore))
		}
		if !exp.Priority.Valid() {
			errs = append(errs, fmt.Errorf("experience: %w: %q", ErrInvalidPriority, exp.Priority))
		}
	}

	return errors.Join(errs...)
}

// Prepare fills missing ids and creation snapshots on a freshly extracted model
// so that it satisfies Validate. Existing ids are kept.
func (m *Model) Prepare() {
	used := map[string]bool{ExperienceID: true}
	assign := func(id string) string {
		if id == "" || used[id] {
			id = newID()
			for used[id] {
				id = newID()
			}
		}
		used[id] = true
		return id
	}
	snapshot := func(r *Requirement, bucket Priority) {
		r.ID = assign(r.ID)
		r.Description = strings.TrimSpace(r.Description)
		r.Priority = bucket
		if r.OriginalPriority == "" {
			r.OriginalPriority = r.Priority
			r.OriginalScore = r.Score
		}
	}

	for _, c := range Categories {
		section := m.Section(c)
		if section == nil {
			continue
		}
		for _, p := range []Priority{MustHave, NiceToHave} {
			for _, e := range *section.bucket(p) {
				if e.Group != nil {
					e.Group.ID = assign(e.Group.ID)
					if e.Group.Type == "" {
						e.Group.Type = GroupAny
					}
					for i := range e.Group.Requirements {
						snapshot(&e.Group.Requirements[i], p)
					}
					continue
				}
				if e.Requirement != nil {
					snapshot(e.Requirement, p)
				}
			}
		}
	}

	if exp := m.Experience; exp != nil {
		if !exp.Priority.Valid() {
			exp.Priority = MustHave
		}
		if exp.OriginalPriority == "" {
			exp.OriginalPriority = exp.Priority
			exp.OriginalScore = exp.Score
		}
	}
}
