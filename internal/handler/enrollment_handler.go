package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/response"
	"github.com/stemsi/gradebook-backend/internal/service"
	"github.com/stemsi/gradebook-backend/internal/validator"
)

// EnrollmentHandler handles the enrollment collection.
type EnrollmentHandler struct {
	enrollmentService *service.EnrollmentService
}

// NewEnrollmentHandler creates a new EnrollmentHandler.
func NewEnrollmentHandler(enrollmentService *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// pairFilter reads the optional student_id and discipline_id query parameters.
func pairFilter(c *gin.Context) (model.PairFilter, bool) {
	studentID, ok := optionalID(c, "student_id")
	if !ok {
		return model.PairFilter{}, false
	}
	disciplineID, ok := optionalID(c, "discipline_id")
	if !ok {
		return model.PairFilter{}, false
	}
	return model.PairFilter{StudentID: studentID, DisciplineID: disciplineID}, true
}

// List godoc
// GET /api/v1/enrollments?student_id=&discipline_id=
// With both parameters the result holds at most one enrollment.
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter, ok := pairFilter(c)
	if !ok {
		return
	}

	enrollments, err := h.enrollmentService.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"enrollments": enrollments})
}

// Create godoc
// POST /api/v1/enrollments
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req model.EnrollmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"enrollment": enrollment})
}

// Delete godoc
// DELETE /api/v1/enrollments/disciplines/:discipline_id/students/:student_id
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	disciplineID, ok := parseID(c, "discipline_id")
	if !ok {
		return
	}
	studentID, ok := parseID(c, "student_id")
	if !ok {
		return
	}

	if err := h.enrollmentService.Unenroll(c.Request.Context(), studentID, disciplineID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "enrollment deleted successfully"})
}
