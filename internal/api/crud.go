package api

import (
	"errors"
	"net/http"

	"github.com/JustJay7/kanzlei/internal/repository"
	"github.com/JustJay7/kanzlei/internal/service"
	"github.com/JustJay7/kanzlei/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RegisterCRUD mounts create, list, get, update and delete for repo on rg.
func RegisterCRUD(rg *gin.RouterGroup, repo repository.Repository, log *logger.Logger) {
	h := &crudHandlers{repo: repo, log: log}

	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PUT("/:id", h.update)
	rg.DELETE("/:id", h.delete)
}

type crudHandlers struct {
	repo repository.Repository
	log  *logger.Logger
}

func (h *crudHandlers) create(c *gin.Context) {
	body, ok := bindRecord(c)
	if !ok {
		return
	}

	record, err := h.repo.Create(c.Request.Context(), body)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *crudHandlers) list(c *gin.Context) {
	records, err := h.repo.FindAll(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if records == nil {
		records = []repository.Record{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *crudHandlers) get(c *gin.Context) {
	record, err := h.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *crudHandlers) update(c *gin.Context) {
	body, ok := bindRecord(c)
	if !ok {
		return
	}

	record, err := h.repo.Update(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *crudHandlers) delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindRecord reads a JSON object body. Anything else is answered with 400.
func bindRecord(c *gin.Context) (repository.Record, bool) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object: " + err.Error()})
		return nil, false
	}
	if body == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return nil, false
	}
	return repository.Record(body), true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrInvalidID), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrMandantHasOpenAkten):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, log *logger.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
