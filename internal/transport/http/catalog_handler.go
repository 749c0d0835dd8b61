package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tatutaller/backend/internal/store"
)

// CatalogHandler serves the public read-only view of class offerings.
type CatalogHandler struct {
	catalog store.OfferingCatalog
	log     *slog.Logger
}

func NewCatalogHandler(catalog store.OfferingCatalog, log *slog.Logger) *CatalogHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CatalogHandler{
		catalog: catalog,
		log:     log.With(slog.String("component", "http.catalog")),
	}
}

func (h *CatalogHandler) ListClasses(c *gin.Context) {
	rows, err := h.catalog.ListActive(c.Request.Context())
	if err != nil {
		h.log.Error("catalog list failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL", "internal error"))
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *CatalogHandler) GetClass(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "class id must be a UUID"))
		return
	}

	off, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrOfferingNotFound) {
			c.JSON(http.StatusNotFound, errorBody("OFFERING_NOT_FOUND", "class not found"))
			return
		}
		h.log.Error("catalog get failed", slog.Any("err", err), slog.String("offering_id", id.String()))
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL", "internal error"))
		return
	}
	c.JSON(http.StatusOK, off)
}
