package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/response"
	"github.com/stemsi/gradebook-backend/internal/service"
	"github.com/stemsi/gradebook-backend/internal/validator"
)

// ProfessorHandler handles professor CRUD.
type ProfessorHandler struct {
	professorService *service.ProfessorService
}

// NewProfessorHandler creates a new ProfessorHandler.
func NewProfessorHandler(professorService *service.ProfessorService) *ProfessorHandler {
	return &ProfessorHandler{professorService: professorService}
}

// List godoc
// GET /api/v1/professors
// Lists all professors ordered by name, each with the disciplines they teach.
func (h *ProfessorHandler) List(c *gin.Context) {
	professors, err := h.professorService.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"professors": professors})
}

// Get godoc
// GET /api/v1/professors/:id
func (h *ProfessorHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	professor, err := h.professorService.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"professor": professor})
}

// Create godoc
// POST /api/v1/professors
func (h *ProfessorHandler) Create(c *gin.Context) {
	var req model.ProfessorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	professor, err := h.professorService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"professor": professor})
}

// Update godoc
// PUT /api/v1/professors/:id
func (h *ProfessorHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.ProfessorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	professor, err := h.professorService.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"professor": professor})
}

// Delete godoc
// DELETE /api/v1/professors/:id
// Fails with 409 while disciplines still reference the professor.
func (h *ProfessorHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.professorService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "professor deleted successfully"})
}
