package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/response"
	"github.com/stemsi/gradebook-backend/internal/service"
	"github.com/stemsi/gradebook-backend/internal/validator"
)

// GradeHandler handles grade records.
type GradeHandler struct {
	gradeService *service.GradeService
}

// NewGradeHandler creates a new GradeHandler.
func NewGradeHandler(gradeService *service.GradeService) *GradeHandler {
	return &GradeHandler{gradeService: gradeService}
}

// List godoc
// GET /api/v1/grades?student_id=&discipline_id=
func (h *GradeHandler) List(c *gin.Context) {
	filter, ok := pairFilter(c)
	if !ok {
		return
	}

	grades, err := h.gradeService.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"grades": grades})
}

// Get godoc
// GET /api/v1/grades/:id
func (h *GradeHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	grade, err := h.gradeService.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"grade": grade})
}

// Create godoc
// POST /api/v1/grades
// Average and classification are derived from the two scores.
func (h *GradeHandler) Create(c *gin.Context) {
	var req model.GradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	grade, err := h.gradeService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"grade": grade})
}

// Update godoc
// PUT /api/v1/grades/:id
func (h *GradeHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.GradeScoresRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	grade, err := h.gradeService.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"grade": grade})
}

// Delete godoc
// DELETE /api/v1/grades/:id
func (h *GradeHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.gradeService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "grade deleted successfully"})
}
