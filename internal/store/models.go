// internal/store/models.go
package store

import (
	"time"

	"castingagency/internal/domain"
)

// Movie is the movies table
type Movie struct {
	ID          int64      `gorm:"primaryKey"`
	Title       string     `gorm:"not null"`
	ReleaseDate *time.Time `gorm:"type:date"`
	Actors      []Actor    `gorm:"many2many:movie_actors;"`
}

// TableName implements gorm's tabler
func (Movie) TableName() string { return "movies" }

// Actor is the actors table
type Actor struct {
	ID     int64  `gorm:"primaryKey"`
	Name   string `gorm:"not null"`
	Age    *int
	Gender *string
	Movies []Movie `gorm:"many2many:movie_actors;"`
}

// TableName implements gorm's tabler
func (Actor) TableName() string { return "actors" }

func (m Movie) toDomain() domain.Movie {
	out := domain.Movie{
		ID:     m.ID,
		Title:  m.Title,
		Actors: make([]int64, 0, len(m.Actors)),
	}
	if m.ReleaseDate != nil {
		out.ReleaseDate = &domain.Date{Time: m.ReleaseDate.UTC()}
	}
	for _, a := range m.Actors {
		out.Actors = append(out.Actors, a.ID)
	}
	return out
}

func (a Actor) toDomain() domain.Actor {
	return domain.Actor{
		ID:     a.ID,
		Name:   a.Name,
		Age:    a.Age,
		Gender: a.Gender,
	}
}

func dateValue(d *domain.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
