// Package store persists assessment sessions by value.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/malik-zulfi/Jiggar-sub000/internal/assessment"
)

var ErrNotFound = errors.New("session not found")

// Summary is the listing view of a stored session.
type Summary struct {
	ID         string    `json:"id"`
	JobTitle   string    `json:"jobTitle"`
	Candidates int       `json:"candidates"`
	Stale      int       `json:"stale"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Store saves and loads whole sessions. Loaded sessions never share memory
// with saved ones.
type Store interface {
	Save(ctx context.Context, s *assessment.Session) error
	Load(ctx context.Context, id string) (*assessment.Session, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}

func summarize(s *assessment.Session) Summary {
	return Summary{
		ID:         s.ID,
		JobTitle:   s.JobTitle,
		Candidates: len(s.Candidates),
		Stale:      s.StaleCount(),
		UpdatedAt:  s.UpdatedAt,
	}
}

func validID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("session id is required")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return errors.New("session id contains invalid characters")
	}
	return nil
}
