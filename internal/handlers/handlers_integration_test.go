package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"movielist/internal/handlers"
	"movielist/internal/middleware"
	"movielist/internal/models"
	"movielist/internal/repositories"
	"movielist/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp wires the full application against a private in-memory
// SQLite database, the same way main does against Postgres.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Movie{}))

	userRepo := repositories.NewGORMUserRepository(db)
	movieRepo := repositories.NewGORMMovieRepository(db)

	authService := services.NewAuthService(userRepo, jwtSecret, time.Hour)
	movieService := services.NewMovieService(movieRepo, nil) // nil RabbitMQ client

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(authService)
	movieHandler := handlers.NewMovieHandler(movieService)

	app := fiber.New()
	authHandler.RegisterRoutes(app)
	userHandler.RegisterPublicRoutes(app)

	// Same registration order as main: the liveness probe sits in front
	// of the bearer check.
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	protected := app.Group("", middleware.AuthRequired(authService))
	userHandler.RegisterProtectedRoutes(protected)
	movieHandler.RegisterRoutes(protected)

	return app
}

func TestHealthDoesNotRequireToken(t *testing.T) {
	app := setupApp(t)

	var health struct {
		Status string `json:"status"`
	}
	status := doJSON(t, app, http.MethodGet, "/health", "", nil, &health)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", health.Status)
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// doJSON issues a request with an optional JSON body and bearer token
// and decodes the response body into out when out is non-nil.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// registerAndLogin creates a user and returns a usable bearer token.
func registerAndLogin(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()

	status := doJSON(t, app, http.MethodPost, "/users", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var login struct {
		AccessToken string            `json:"access_token"`
		User        models.PublicUser `json:"user"`
	}
	status = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	}, &login)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, login.AccessToken)
	require.Equal(t, username, login.User.Username)
	return login.AccessToken
}

func TestRegisterLoginProfile(t *testing.T) {
	app := setupApp(t)

	var created models.PublicUser
	status := doJSON(t, app, http.MethodPost, "/users", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret1",
	}, &created)
	assert.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Username)

	// Duplicate username
	status = doJSON(t, app, http.MethodPost, "/users", "", map[string]string{
		"username": "alice",
		"email":    "alice2@example.com",
		"password": "secret1",
	}, nil)
	assert.Equal(t, http.StatusConflict, status)

	// Wrong password
	status = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Correct login, then profile round-trip
	var login struct {
		AccessToken string            `json:"access_token"`
		User        models.PublicUser `json:"user"`
	}
	status = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "secret1",
	}, &login)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, created.ID, login.User.ID)

	var profile models.PublicUser
	status = doJSON(t, app, http.MethodGet, "/users/profile", login.AccessToken, nil, &profile)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, created.ID, profile.ID)
	assert.Equal(t, "alice@example.com", profile.Email)

	// No token
	status = doJSON(t, app, http.MethodGet, "/users/profile", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCreateSearchScenario(t *testing.T) {
	app := setupApp(t)
	token := registerAndLogin(t, app, "alice", "secret1")

	var dune models.Movie
	status := doJSON(t, app, http.MethodPost, "/movies", token, map[string]interface{}{
		"title":       "Dune",
		"releaseYear": 2021,
	}, &dune)
	require.Equal(t, http.StatusCreated, status)
	assert.NotZero(t, dune.ID)
	assert.Equal(t, 2021, *dune.ReleaseYear)

	var page struct {
		Movies []models.Movie `json:"movies"`
		Total  int64          `json:"total"`
	}
	status = doJSON(t, app, http.MethodGet, "/movies?search=dun", token, nil, &page)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Movies, 1)
	assert.Equal(t, "Dune", page.Movies[0].Title)

	status = doJSON(t, app, http.MethodGet, "/movies?search=zzz", token, nil, &page)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(0), page.Total)
	assert.Empty(t, page.Movies)

	// getAllMovies returns a bare array
	var all []models.Movie
	status = doJSON(t, app, http.MethodGet, "/movies?getAllMovies=true", token, nil, &all)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, all, 1)
}

func TestCreateValidationErrors(t *testing.T) {
	app := setupApp(t)
	token := registerAndLogin(t, app, "alice", "secret1")

	var errResp struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	status := doJSON(t, app, http.MethodPost, "/movies", token, map[string]interface{}{
		"releaseYear": 1879,
		"rating":      10.1,
	}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", errResp.Message)
	// Every violated field is reported, not just the first
	assert.Contains(t, errResp.Errors, "title")
	assert.Contains(t, errResp.Errors, "releaseYear")
	assert.Contains(t, errResp.Errors, "rating")

	// Pagination bounds
	status = doJSON(t, app, http.MethodGet, "/movies?limit=101", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status = doJSON(t, app, http.MethodGet, "/movies?limit=100", token, nil, nil)
	assert.Equal(t, http.StatusOK, status)
	status = doJSON(t, app, http.MethodGet, "/movies?sortBy=owner", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestOwnershipIsolation(t *testing.T) {
	app := setupApp(t)
	aliceToken := registerAndLogin(t, app, "alice", "secret1")
	bobToken := registerAndLogin(t, app, "bob", "secret2")

	var movie models.Movie
	status := doJSON(t, app, http.MethodPost, "/movies", aliceToken, map[string]interface{}{
		"title": "Alice's Movie",
		"genre": "Drama",
	}, &movie)
	require.Equal(t, http.StatusCreated, status)

	path := fmt.Sprintf("/movies/%d", movie.ID)

	// Bob can tell the movie exists but cannot touch it
	assert.Equal(t, http.StatusForbidden, doJSON(t, app, http.MethodGet, path, bobToken, nil, nil))
	assert.Equal(t, http.StatusForbidden, doJSON(t, app, http.MethodPut, path, bobToken, map[string]interface{}{"title": "Hijacked"}, nil))
	assert.Equal(t, http.StatusForbidden, doJSON(t, app, http.MethodDelete, path, bobToken, nil, nil))

	// Bob's listings never include Alice's movie, filters notwithstanding
	var page struct {
		Movies []models.Movie `json:"movies"`
		Total  int64          `json:"total"`
	}
	status = doJSON(t, app, http.MethodGet, "/movies?search=alice&genre=Drama", bobToken, nil, &page)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(0), page.Total)

	var genres []string
	status = doJSON(t, app, http.MethodGet, "/movies/genres", bobToken, nil, &genres)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, genres)

	// Missing ids stay NotFound
	assert.Equal(t, http.StatusNotFound, doJSON(t, app, http.MethodGet, "/movies/9999", aliceToken, nil, nil))
}

func TestUpdateAndDelete(t *testing.T) {
	app := setupApp(t)
	token := registerAndLogin(t, app, "alice", "secret1")

	var movie models.Movie
	status := doJSON(t, app, http.MethodPost, "/movies", token, map[string]interface{}{
		"title":       "Dune",
		"director":    "Denis Villeneuve",
		"releaseYear": 2021,
		"genre":       "Sci-Fi",
	}, &movie)
	require.Equal(t, http.StatusCreated, status)

	path := fmt.Sprintf("/movies/%d", movie.ID)

	// Partial update changes only the provided field
	var updated models.Movie
	status = doJSON(t, app, http.MethodPut, path, token, map[string]interface{}{
		"title": "Dune: Part One",
	}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Dune: Part One", updated.Title)
	assert.Equal(t, "Denis Villeneuve", *updated.Director)
	assert.Equal(t, 2021, *updated.ReleaseYear)
	assert.Equal(t, movie.ID, updated.ID)
	assert.Equal(t, movie.UserID, updated.UserID)

	var got models.Movie
	status = doJSON(t, app, http.MethodGet, path, token, nil, &got)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Dune: Part One", got.Title)

	// Clearing the title is rejected
	status = doJSON(t, app, http.MethodPut, path, token, map[string]interface{}{"title": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// Delete succeeds once, then the id is gone
	var deleted struct {
		Message string `json:"message"`
	}
	status = doJSON(t, app, http.MethodDelete, path, token, nil, &deleted)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Movie deleted successfully", deleted.Message)

	assert.Equal(t, http.StatusNotFound, doJSON(t, app, http.MethodDelete, path, token, nil, nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, app, http.MethodGet, path, token, nil, nil))
}

func TestListSortingAndGenres(t *testing.T) {
	app := setupApp(t)
	token := registerAndLogin(t, app, "alice", "secret1")

	titles := []string{"Banshee", "Arrival", "Carol"}
	years := []int{2016, 2016, 2015}
	genres := []string{"Drama", "Sci-Fi", "Drama"}
	for i, title := range titles {
		status := doJSON(t, app, http.MethodPost, "/movies", token, map[string]interface{}{
			"title":       title,
			"releaseYear": years[i],
			"genre":       genres[i],
		}, nil)
		require.Equal(t, http.StatusCreated, status)
	}

	var page struct {
		Movies []models.Movie `json:"movies"`
		Total  int64          `json:"total"`
	}
	status := doJSON(t, app, http.MethodGet, "/movies?sortBy=title&order=ASC", token, nil, &page)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, page.Movies, 3)
	assert.Equal(t, "Arrival", page.Movies[0].Title)
	assert.Equal(t, "Carol", page.Movies[2].Title)

	// Equal years fall back to insertion (id) order
	status = doJSON(t, app, http.MethodGet, "/movies?sortBy=releaseYear&order=DESC", token, nil, &page)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Banshee", page.Movies[0].Title)
	assert.Equal(t, "Arrival", page.Movies[1].Title)
	assert.Equal(t, "Carol", page.Movies[2].Title)

	var genreList []string
	status = doJSON(t, app, http.MethodGet, "/movies/genres", token, nil, &genreList)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Drama", "Sci-Fi"}, genreList)
}
