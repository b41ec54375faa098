package repositories

import (
	"errors"
	"fmt"
	"strings"

	"movielist/internal/models"

	"gorm.io/gorm"
)

// GORMMovieRepository is a GORM implementation of MovieRepository.
type GORMMovieRepository struct {
	db *gorm.DB
}

// NewGORMMovieRepository creates a new instance of GORMMovieRepository.
func NewGORMMovieRepository(db *gorm.DB) *GORMMovieRepository {
	return &GORMMovieRepository{
		db: db,
	}
}

// Create inserts a new movie and fills in the generated id.
func (r *GORMMovieRepository) Create(movie *models.Movie) error {
	if err := r.db.Create(movie).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("movie already exists: %w", ErrConflict)
		}
		return fmt.Errorf("failed to create movie: %w", err)
	}
	return nil
}

// GetByID retrieves a single movie by id, whoever owns it.
func (r *GORMMovieRepository) GetByID(id uint) (*models.Movie, error) {
	var movie models.Movie
	if err := r.db.First(&movie, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get movie by ID %d: %w", id, err)
	}
	return &movie, nil
}

// Update persists all fields of an existing movie.
func (r *GORMMovieRepository) Update(movie *models.Movie) error {
	res := r.db.Save(movie)
	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			return fmt.Errorf("movie already exists: %w", ErrConflict)
		}
		return fmt.Errorf("failed to update movie: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Save does not return ErrRecordNotFound when nothing matched,
		// so we check RowsAffected.
		return ErrNotFound
	}
	return nil
}

// Delete removes a movie permanently.
func (r *GORMMovieRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Movie{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete movie: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of the owner's movies plus the total count of
// rows matching the filters. The owner filter is applied before anything
// else; search and genre only ever narrow within the owner's rows. The
// requested sort is followed by "id ASC" so equal sort keys come back in
// a stable order.
func (r *GORMMovieRepository) List(ownerID string, q MovieQuery) ([]models.Movie, int64, error) {
	base := r.db.Model(&models.Movie{}).Where("user_id = ?", ownerID)

	if q.Search != "" {
		// The search string goes into LIKE unescaped, so % and _ keep
		// their wildcard meaning. Searches only ever run inside the
		// owner's own rows, so a crafted pattern widens nothing.
		base = base.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}
	if q.Genre != "" {
		base = base.Where("genre = ?", q.Genre)
	}
	// base is shared between the count and the page query; Session gives
	// each its own statement so the finishers don't step on each other.
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		// The service rejects unknown sort fields before calling us;
		// falling back keeps the query well-formed regardless.
		column = "id"
	}
	order := "ASC"
	if strings.EqualFold(q.Order, "DESC") {
		order = "DESC"
	}
	tx := base.Order(column + " " + order)
	if column != "id" {
		tx = tx.Order("id ASC")
	}

	if !q.All {
		tx = tx.Offset((q.Page - 1) * q.Limit).Limit(q.Limit)
	}

	var movies []models.Movie
	if err := tx.Find(&movies).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, total, nil
}

// ListGenres returns the owner's distinct non-empty genre values sorted
// ascending. Matching is case-sensitive: "Drama" and "drama" are two
// genres.
func (r *GORMMovieRepository) ListGenres(ownerID string) ([]string, error) {
	var genres []string
	err := r.db.Model(&models.Movie{}).
		Where("user_id = ? AND genre IS NOT NULL AND genre <> ''", ownerID).
		Distinct().
		Order("genre ASC").
		Pluck("genre", &genres).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, nil
}
