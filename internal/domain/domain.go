// internal/domain/domain.go

// Package domain holds the casting agency's resources and input rules.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a movie or actor does not exist
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidInput is returned when a request body fails validation
	ErrInvalidInput = errors.New("invalid input")
)

// DateLayout is the wire format of release dates
const DateLayout = "2006-01-02"

// Date is a calendar date rendered as YYYY-MM-DD
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: release_date must be formatted as YYYY-MM-DD", ErrInvalidInput)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Movie is a film with its cast
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate *Date   `json:"release_date"`
	Actors      []int64 `json:"actors"`
}

// Actor is a performer who may appear in movies
type Actor struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Age    *int    `json:"age"`
	Gender *string `json:"gender"`
}

// MovieInput is the request body of movie create and update
type MovieInput struct {
	Title       *string  `json:"title"`
	ReleaseDate *string  `json:"release_date"`
	Actors      *[]int64 `json:"actors"`
}

// MovieChanges is a validated MovieInput
type MovieChanges struct {
	Title string
	// ReleaseDate is nil when the date is left unchanged
	ReleaseDate *Date
	// ActorIDs replaces the cast when SetActors is true; an empty list clears it
	ActorIDs  []int64
	SetActors bool
}

// ForCreate validates the input of a new movie. Title and release date are required.
func (in MovieInput) ForCreate() (MovieChanges, error) {
	changes, err := in.validate()
	if err != nil {
		return MovieChanges{}, err
	}
	if changes.ReleaseDate == nil {
		return MovieChanges{}, fmt.Errorf("%w: release_date is required", ErrInvalidInput)
	}
	return changes, nil
}

// ForUpdate validates the input of a movie update. Title is required; the
// release date and cast change only when present.
func (in MovieInput) ForUpdate() (MovieChanges, error) {
	return in.validate()
}

func (in MovieInput) validate() (MovieChanges, error) {
	var changes MovieChanges

	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return changes, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	changes.Title = strings.TrimSpace(*in.Title)

	if in.ReleaseDate != nil {
		d, err := ParseDate(*in.ReleaseDate)
		if err != nil {
			return MovieChanges{}, err
		}
		changes.ReleaseDate = &d
	}

	if in.Actors != nil {
		changes.SetActors = true
		changes.ActorIDs = dedupe(*in.Actors)
	}
	return changes, nil
}

// ActorInput is the request body of actor create and update
type ActorInput struct {
	Name   *string `json:"name"`
	Age    *int    `json:"age"`
	Gender *string `json:"gender"`
}

// ActorChanges is a validated ActorInput. Nil Age or Gender store null.
type ActorChanges struct {
	Name   string
	Age    *int
	Gender *string
}

// Validate checks the actor input. Name is required and age must not be negative.
func (in ActorInput) Validate() (ActorChanges, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return ActorChanges{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Age != nil && *in.Age < 0 {
		return ActorChanges{}, fmt.Errorf("%w: age must not be negative", ErrInvalidInput)
	}

	changes := ActorChanges{
		Name: strings.TrimSpace(*in.Name),
		Age:  in.Age,
	}
	if in.Gender != nil {
		g := strings.TrimSpace(*in.Gender)
		changes.Gender = &g
	}
	return changes, nil
}

func dedupe(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
