package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"movielist/internal/models"
	"movielist/internal/repositories"
	"movielist/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
)

// MovieService enforces ownership and orchestrates movie CRUD. Every
// operation takes the authenticated caller's user id and no code path
// reads or writes another user's rows.
type MovieService struct {
	repo     repositories.MovieRepository
	validate *validator.Validate
	mqClient *rabbitmq.Client
}

// NewMovieService creates a new MovieService. mqClient may be nil, in
// which case lifecycle events are simply not published.
func NewMovieService(repo repositories.MovieRepository, mqClient *rabbitmq.Client) *MovieService {
	v := validator.New()
	// Upper bound on release years moves with the clock, which rules out
	// a plain lte tag.
	_ = v.RegisterValidation("release_year", func(fl validator.FieldLevel) bool {
		y := fl.Field().Int()
		return y >= 1880 && y <= int64(time.Now().Year()+5)
	})
	return &MovieService{
		repo:     repo,
		validate: v,
		mqClient: mqClient,
	}
}

// Create validates the fields, sets the owner to the authenticated
// caller (any client-supplied owner is ignored by construction) and
// persists the movie.
func (s *MovieService) Create(input models.MovieInput, ownerID string) (*models.Movie, error) {
	var movie models.Movie
	input.ApplyTo(&movie)
	movie.UserID = ownerID

	if err := s.validateMovie(&movie); err != nil {
		return nil, err
	}
	if err := s.repo.Create(&movie); err != nil {
		return nil, err
	}
	s.publishEvent("movie.created", &movie)
	return &movie, nil
}

// Get retrieves a movie, failing with repositories.ErrNotFound when no
// such id exists and ErrForbidden when it exists but belongs to someone
// else. The two cases stay distinguishable on purpose, matching the
// API's observed contract, even though that leaks existence to
// non-owners.
func (s *MovieService) Get(id uint, ownerID string) (*models.Movie, error) {
	movie, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if movie.UserID != ownerID {
		return nil, ErrForbidden
	}
	return movie, nil
}

// Update merges the provided fields over the stored record, re-validates
// the result and persists it. The movie's id and owner never change
// regardless of what the caller supplies.
func (s *MovieService) Update(id uint, input models.MovieInput, ownerID string) (*models.Movie, error) {
	movie, err := s.Get(id, ownerID)
	if err != nil {
		return nil, err
	}

	input.ApplyTo(movie)
	if err := s.validateMovie(movie); err != nil {
		return nil, err
	}
	if err := s.repo.Update(movie); err != nil {
		return nil, err
	}
	s.publishEvent("movie.updated", movie)
	return movie, nil
}

// Delete removes a movie permanently. Deleting the same id twice yields
// ErrNotFound the second time.
func (s *MovieService) Delete(id uint, ownerID string) error {
	movie, err := s.Get(id, ownerID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(movie.ID); err != nil {
		return err
	}
	s.publishEvent("movie.deleted", movie)
	return nil
}

// List returns one page of the owner's movies and the total count of
// matching rows.
func (s *MovieService) List(ownerID string, q repositories.MovieQuery) ([]models.Movie, int64, error) {
	q, err := s.normalizeQuery(q)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ownerID, q)
}

// ListAll returns every matching movie the owner has, without pagination.
func (s *MovieService) ListAll(ownerID string, q repositories.MovieQuery) ([]models.Movie, error) {
	q.All = true
	q, err := s.normalizeQuery(q)
	if err != nil {
		return nil, err
	}
	movies, _, listErr := s.repo.List(ownerID, q)
	return movies, listErr
}

// ListGenres returns the owner's distinct genre values, sorted ascending.
func (s *MovieService) ListGenres(ownerID string) ([]string, error) {
	return s.repo.ListGenres(ownerID)
}

// normalizeQuery applies the documented defaults (sortBy=id, order=ASC,
// page=1, limit=10) and rejects out-of-range values. All problems are
// reported together.
func (s *MovieService) normalizeQuery(q repositories.MovieQuery) (repositories.MovieQuery, error) {
	fields := make(map[string]string)

	if q.SortBy == "" {
		q.SortBy = "id"
	} else if !repositories.ValidSortField(q.SortBy) {
		fields["sortBy"] = fmt.Sprintf("Sort field must be one of: %s",
			strings.Join(repositories.SortFieldNames(), ", "))
	}

	switch strings.ToUpper(q.Order) {
	case "":
		q.Order = "ASC"
	case "ASC", "DESC":
		q.Order = strings.ToUpper(q.Order)
	default:
		fields["order"] = "Order must be ASC or DESC"
	}

	if !q.All {
		if q.Page == 0 {
			q.Page = 1
		} else if q.Page < 1 {
			fields["page"] = "Page number must be a positive integer"
		}
		if q.Limit == 0 {
			q.Limit = 10
		} else if q.Limit < 1 || q.Limit > 100 {
			fields["limit"] = "Limit must be between 1 and 100"
		}
	}

	if len(fields) > 0 {
		return q, &ValidationError{Fields: fields}
	}
	return q, nil
}

// validateMovie checks the merged record against the field constraints
// and reports every violated field, not just the first.
func (s *MovieService) validateMovie(movie *models.Movie) error {
	err := s.validate.Struct(movie)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate movie: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldName(fe.Field())] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldName maps struct field names to their JSON names.
func fieldName(structField string) string {
	switch structField {
	case "Title":
		return "title"
	case "Director":
		return "director"
	case "ReleaseYear":
		return "releaseYear"
	case "Genre":
		return "genre"
	case "Rating":
		return "rating"
	case "Description":
		return "description"
	case "PosterURL":
		return "posterUrl"
	default:
		return strings.ToLower(structField)
	}
}

// fieldMessage renders a human-readable message for one violation.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Title is required"
	case "max":
		return fmt.Sprintf("%s must be %s characters or less", fe.Field(), fe.Param())
	case "release_year":
		return fmt.Sprintf("Release year must be between 1880 and %d", time.Now().Year()+5)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s cannot be more than %s", fe.Field(), fe.Param())
	case "url":
		return "Poster URL must be a valid URL"
	default:
		return fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
	}
}

// publishEvent emits a movie lifecycle event on the queue. Publishing is
// best effort: a missing client or a broker failure never fails the
// request that triggered it.
func (s *MovieService) publishEvent(routingKey string, movie *models.Movie) {
	if s.mqClient == nil {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"movieId": movie.ID,
		"userId":  movie.UserID,
		"title":   movie.Title,
	})
	if err != nil {
		log.Printf("Failed to marshal movie event: %v", err)
		return
	}
	if err := s.mqClient.Publish(routingKey, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for movie %d: %v", routingKey, movie.ID, err)
	}
}
