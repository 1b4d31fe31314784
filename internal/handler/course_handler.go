package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/response"
	"github.com/stemsi/gradebook-backend/internal/service"
	"github.com/stemsi/gradebook-backend/internal/validator"
)

// CourseHandler handles course CRUD.
type CourseHandler struct {
	courseService *service.CourseService
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// List godoc
// GET /api/v1/courses
// Lists all courses ordered by name, each with its disciplines.
func (h *CourseHandler) List(c *gin.Context) {
	courses, err := h.courseService.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// Get godoc
// GET /api/v1/courses/:id
func (h *CourseHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// Create godoc
// POST /api/v1/courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req model.CourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"course": course})
}

// Update godoc
// PUT /api/v1/courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.CourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// Delete godoc
// DELETE /api/v1/courses/:id
// Fails with 409 while disciplines still reference the course.
func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "course deleted successfully"})
}
