// Package model defines the core subject data types.
package model

import "time"

// Subject is one tracked real-world person referenced across a conversation.
type Subject struct {
	ID          string    `json:"id"`
	PrimaryName string    `json:"primary_name"`
	Aliases     []string  `json:"aliases,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Names returns the primary name followed by the aliases in insertion order.
func (s Subject) Names() []string {
	names := make([]string, 0, len(s.Aliases)+1)
	names = append(names, s.PrimaryName)
	return append(names, s.Aliases...)
}

// Clone returns a deep copy so callers cannot mutate store-owned slices.
func (s Subject) Clone() Subject {
	c := s
	if s.Aliases != nil {
		c.Aliases = append([]string(nil), s.Aliases...)
	}
	return c
}
