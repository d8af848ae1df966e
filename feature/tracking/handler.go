package tracking

import (
	"errors"

	"library-alert/core/logger"
	"library-alert/core/status"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler handles HTTP requests for tracked libraries and books.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the tracking routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Use(cors.New(cors.Config{AllowOrigins: "*"}))

	app.Get("/", h.HandleList)
	app.Post("/libraries", h.HandleAddLibrary)
	app.Delete("/libraries/:systemid?", h.HandleDeleteLibrary)
	app.Post("/books", h.HandleAddBook)
	app.Delete("/books/:isbn?", h.HandleDeleteBook)
}

// LibraryRequest is the body of POST /libraries.
type LibraryRequest struct {
	SystemID string `json:"systemid" example:"Tokyo_Setagaya"`
}

// BookRequest is the body of POST /books.
type BookRequest struct {
	ISBN string `json:"isbn" example:"9784101010014"`
}

// Response is the body of every non-listing answer.
type Response struct {
	Description string `json:"description"`
}

// HandleList returns the flattened (Library, ISBN, Status) listing.
// @Summary List Tracked Status
// @Description One entry per tracked library and book. A library without books is listed once with null ISBN and Status.
// @Tags tracking
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} tracking.Entry "Tracked status"
// @Failure 500 {object} tracking.Response "Internal Server Error"
// @Router / [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	entries, err := h.service.List(c.Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(entries)
}

// HandleAddLibrary registers the library named by {"systemid"}.
// @Summary Add Library
// @Description Registers a library system, seeded with every tracked book.
// @Tags tracking
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body tracking.LibraryRequest true "Library system id"
// @Success 201 {object} tracking.Response "Created"
// @Failure 400 {object} tracking.Response "Bad Request"
// @Failure 500 {object} tracking.Response "Internal Server Error"
// @Router /libraries [post]
func (h *Handler) HandleAddLibrary(c *fiber.Ctx) error {
	var body LibraryRequest
	if err := decodeBody(c, &body); err != nil {
		return h.fail(c, err)
	}
	if err := h.service.AddLibrary(c.Context(), body.SystemID); err != nil {
		return h.fail(c, err)
	}

	logger.WithRayID(h.service.logger, c).Info("Library added", zap.String("library", body.SystemID))
	return c.Status(fiber.StatusCreated).JSON(Response{Description: "Successfully added a new library"})
}

// HandleDeleteLibrary deregisters a library.
// @Summary Delete Library
// @Tags tracking
// @Produce json
// @Security ApiKeyAuth
// @Param systemid path string true "Library system id"
// @Success 204 "Deleted"
// @Failure 400 {object} tracking.Response "Bad Request"
// @Failure 404 {object} tracking.Response "Library Not Found"
// @Failure 500 {object} tracking.Response "Internal Server Error"
// @Router /libraries/{systemid} [delete]
func (h *Handler) HandleDeleteLibrary(c *fiber.Ctx) error {
	systemID := c.Params("systemid")
	if err := h.service.DeleteLibrary(c.Context(), systemID); err != nil {
		return h.fail(c, err)
	}

	logger.WithRayID(h.service.logger, c).Info("Library deleted", zap.String("library", systemID))
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleAddBook starts tracking the book named by {"isbn"}.
// @Summary Add Book
// @Description Tracks a book at every registered library.
// @Tags tracking
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body tracking.BookRequest true "Book ISBN"
// @Success 201 {object} tracking.Response "Created"
// @Failure 400 {object} tracking.Response "Bad Request"
// @Failure 500 {object} tracking.Response "Internal Server Error"
// @Router /books [post]
func (h *Handler) HandleAddBook(c *fiber.Ctx) error {
	var body BookRequest
	if err := decodeBody(c, &body); err != nil {
		return h.fail(c, err)
	}
	if err := h.service.AddBook(c.Context(), body.ISBN); err != nil {
		return h.fail(c, err)
	}

	logger.WithRayID(h.service.logger, c).Info("Book added", zap.String("isbn", body.ISBN))
	return c.Status(fiber.StatusCreated).JSON(Response{Description: "Successfully added a new book"})
}

// HandleDeleteBook stops tracking a book.
// @Summary Delete Book
// @Description Stops tracking a book at every library.
// @Tags tracking
// @Produce json
// @Security ApiKeyAuth
// @Param isbn path string true "Book ISBN"
// @Success 204 "Deleted"
// @Failure 400 {object} tracking.Response "Bad Request"
// @Failure 500 {object} tracking.Response "Internal Server Error"
// @Router /books/{isbn} [delete]
func (h *Handler) HandleDeleteBook(c *fiber.Ctx) error {
	isbn := c.Params("isbn")
	if err := h.service.DeleteBook(c.Context(), isbn); err != nil {
		return h.fail(c, err)
	}

	logger.WithRayID(h.service.logger, c).Info("Book deleted", zap.String("isbn", isbn))
	return c.SendStatus(fiber.StatusNoContent)
}

func decodeBody(c *fiber.Ctx, dst any) error {
	raw := c.Body()
	if len(raw) == 0 {
		return invalid("Invalid request. The request body is missing!")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return invalid("Invalid request. The request body is not valid JSON")
	}
	return nil
}

// fail maps service errors to status codes.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(Response{Description: "Bad request. " + verr.Reason})
	case errors.Is(err, status.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(Response{Description: "Library not found."})
	default:
		logger.WithRayID(h.service.logger, c).Error("Tracking request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(Response{Description: "Internal server error."})
	}
}
