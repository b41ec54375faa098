package repositories

import "movielist/internal/models"

// MovieQuery carries the listing parameters after the service layer has
// validated and defaulted them. The owner id is deliberately not part of
// this struct: it is a separate, mandatory argument on every repository
// method so no call site can forget to scope a query.
type MovieQuery struct {
	Search string // case-insensitive substring match on title
	Genre  string // exact match
	SortBy string // one of the keys of sortColumns
	Order  string // "ASC" or "DESC"
	Page   int
	Limit  int
	All    bool // bypass pagination entirely
}

// sortColumns maps the API-level sort field names to database columns.
// Anything not in this map must be rejected before it reaches storage.
var sortColumns = map[string]string{
	"id":          "id",
	"title":       "title",
	"director":    "director",
	"releaseYear": "release_year",
	"rating":      "rating",
	"createdAt":   "created_at",
}

// ValidSortField reports whether name is an allowed sortBy value.
func ValidSortField(name string) bool {
	_, ok := sortColumns[name]
	return ok
}

// SortFieldNames returns the allowed sortBy values for error messages.
func SortFieldNames() []string {
	return []string{"id", "title", "director", "releaseYear", "rating", "createdAt"}
}

// MovieRepository defines the interface for movie data access. GetByID
// returns the row regardless of owner: the service layer needs the real
// owner to tell "not found" apart from "not yours". Listing methods take
// the owner id so the scoping filter is applied inside the repository.
type MovieRepository interface {
	Create(movie *models.Movie) error
	GetByID(id uint) (*models.Movie, error)
	Update(movie *models.Movie) error
	Delete(id uint) error
	List(ownerID string, q MovieQuery) ([]models.Movie, int64, error)
	ListGenres(ownerID string) ([]string, error)
}
