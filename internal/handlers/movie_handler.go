package handlers

import (
	"log"
	"strconv"

	"movielist/internal/models"
	"movielist/internal/repositories"
	"movielist/internal/services"

	"github.com/gofiber/fiber/v2"
)

// MovieHandler handles HTTP requests for the movie collection. All
// routes sit behind the bearer middleware, so the owning user id is
// always available in the request locals.
type MovieHandler struct {
	service *services.MovieService
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(service *services.MovieService) *MovieHandler {
	return &MovieHandler{
		service: service,
	}
}

// RegisterRoutes registers the movie routes with the Fiber app.
func (h *MovieHandler) RegisterRoutes(router fiber.Router) {
	movieRoutes := router.Group("/movies")
	movieRoutes.Post("/", h.HandleCreate)
	movieRoutes.Get("/", h.HandleList)
	movieRoutes.Get("/genres", h.HandleListGenres)
	movieRoutes.Get("/:id", h.HandleGet)
	movieRoutes.Put("/:id", h.HandleUpdate)
	movieRoutes.Delete("/:id", h.HandleDelete)
}

// ownerID returns the authenticated caller's user id set by the bearer
// middleware.
func ownerID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// movieID parses the :id path parameter.
func movieID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// HandleCreate creates a movie owned by the caller.
func (h *MovieHandler) HandleCreate(c *fiber.Ctx) error {
	var input models.MovieInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing movie request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	movie, err := h.service.Create(input, ownerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(movie)
}

// HandleList returns one page of the caller's movies, or every matching
// movie as a bare array when getAllMovies=true.
func (h *MovieHandler) HandleList(c *fiber.Ctx) error {
	q, err := parseListQuery(c)
	if err != nil {
		return respondError(c, err)
	}

	owner := ownerID(c)

	if c.Query("getAllMovies") == "true" {
		movies, err := h.service.ListAll(owner, q)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(movies)
	}

	movies, total, err := h.service.List(owner, q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"movies": movies,
		"total":  total,
	})
}

// parseListQuery turns the query string into a MovieQuery. Absent
// parameters stay zero so the service can apply its defaults; values
// that are not numbers at all are rejected here.
func parseListQuery(c *fiber.Ctx) (repositories.MovieQuery, error) {
	q := repositories.MovieQuery{
		Search: c.Query("search"),
		Genre:  c.Query("genre"),
		SortBy: c.Query("sortBy"),
		Order:  c.Query("order"),
	}

	fields := make(map[string]string)
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			fields["page"] = "Page number must be a positive integer"
		} else {
			q.Page = page
		}
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			fields["limit"] = "Limit must be between 1 and 100"
		} else {
			q.Limit = limit
		}
	}
	if len(fields) > 0 {
		return q, &services.ValidationError{Fields: fields}
	}
	return q, nil
}

// HandleListGenres returns the caller's distinct genres.
func (h *MovieHandler) HandleListGenres(c *fiber.Ctx) error {
	genres, err := h.service.ListGenres(ownerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(genres)
}

// HandleGet returns a single movie.
func (h *MovieHandler) HandleGet(c *fiber.Ctx) error {
	id, err := movieID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Movie id must be a positive integer",
		})
	}

	movie, err := h.service.Get(id, ownerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(movie)
}

// HandleUpdate applies a partial update to a movie.
func (h *MovieHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := movieID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Movie id must be a positive integer",
		})
	}

	var input models.MovieInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing movie request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	movie, err := h.service.Update(id, input, ownerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(movie)
}

// HandleDelete removes a movie permanently.
func (h *MovieHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := movieID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Movie id must be a positive integer",
		})
	}

	if err := h.service.Delete(id, ownerID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Movie deleted successfully",
	})
}
