package models

import "time"

// Movie represents a single entry in a user's collection. All optional
// fields are pointers so a partial update can tell "absent" from "zero".
// No gorm.Model here: movies are hard-deleted, never soft-deleted.
type Movie struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null" validate:"required,max=255"`
	Director    *string   `json:"director" gorm:"type:varchar(100)" validate:"omitempty,max=100"`
	ReleaseYear *int      `json:"releaseYear" validate:"omitempty,release_year"`
	Genre       *string   `json:"genre" gorm:"type:varchar(50)" validate:"omitempty,max=50"`
	Rating      *float64  `json:"rating" validate:"omitempty,gte=0,lte=10"`
	Description *string   `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	PosterURL   *string   `json:"posterUrl" gorm:"type:varchar(500)" validate:"omitempty,url,max=500"`
	UserID      string    `json:"userId" gorm:"index;type:varchar(36);not null"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MovieInput carries the writable movie fields of a create or update
// request. Every field except Title is optional; on update a nil field
// means "leave unchanged".
type MovieInput struct {
	Title       *string  `json:"title"`
	Director    *string  `json:"director"`
	ReleaseYear *int     `json:"releaseYear"`
	Genre       *string  `json:"genre"`
	Rating      *float64 `json:"rating"`
	Description *string  `json:"description"`
	PosterURL   *string  `json:"posterUrl"`
}

// ApplyTo merges the provided fields over an existing movie. Fields left
// nil in the input are untouched. ID and UserID are never written.
//
// A JSON null decodes to a nil pointer, so "explicitly null" reads the
// same as "absent": optional fields can be overwritten or emptied with
// "" but not cleared back to null through this path.
func (in *MovieInput) ApplyTo(m *Movie) {
	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.Director != nil {
		m.Director = in.Director
	}
	if in.ReleaseYear != nil {
		m.ReleaseYear = in.ReleaseYear
	}
	if in.Genre != nil {
		m.Genre = in.Genre
	}
	if in.Rating != nil {
		m.Rating = in.Rating
	}
	if in.Description != nil {
		m.Description = in.Description
	}
	if in.PosterURL != nil {
		m.PosterURL = in.PosterURL
	}
}
