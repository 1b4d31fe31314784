package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/response"
	"github.com/stemsi/gradebook-backend/internal/service"
	"github.com/stemsi/gradebook-backend/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DisciplineHandler handles disciplines and the per-discipline enrollment
// and export endpoints.
type DisciplineHandler struct {
	disciplineService *service.DisciplineService
	enrollmentService *service.EnrollmentService
	gradeService      *service.GradeService
}

// NewDisciplineHandler creates a new DisciplineHandler.
func NewDisciplineHandler(
	disciplineService *service.DisciplineService,
	enrollmentService *service.EnrollmentService,
	gradeService *service.GradeService,
) *DisciplineHandler {
	return &DisciplineHandler{
		disciplineService: disciplineService,
		enrollmentService: enrollmentService,
		gradeService:      gradeService,
	}
}

// List godoc
// GET /api/v1/disciplines?course_id=&professor_id=
func (h *DisciplineHandler) List(c *gin.Context) {
	courseID, ok := optionalID(c, "course_id")
	if !ok {
		return
	}
	professorID, ok := optionalID(c, "professor_id")
	if !ok {
		return
	}

	disciplines, err := h.disciplineService.List(c.Request.Context(), model.DisciplineFilter{
		CourseID:    courseID,
		ProfessorID: professorID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"disciplines": disciplines})
}

// Get godoc
// GET /api/v1/disciplines/:id
func (h *DisciplineHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	discipline, err := h.disciplineService.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"discipline": discipline})
}

// Create godoc
// POST /api/v1/disciplines
func (h *DisciplineHandler) Create(c *gin.Context) {
	var req model.DisciplineRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	discipline, err := h.disciplineService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"discipline": discipline})
}

// Update godoc
// PUT /api/v1/disciplines/:id
func (h *DisciplineHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req model.DisciplineRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	discipline, err := h.disciplineService.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"discipline": discipline})
}

// Delete godoc
// DELETE /api/v1/disciplines/:id
func (h *DisciplineHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.disciplineService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "discipline deleted successfully"})
}

// Enroll godoc
// POST /api/v1/disciplines/:id/students/:student_id
func (h *DisciplineHandler) Enroll(c *gin.Context) {
	disciplineID, ok := parseID(c, "id")
	if !ok {
		return
	}
	studentID, ok := parseID(c, "student_id")
	if !ok {
		return
	}

	enrollment, err := h.enrollmentService.EnrollPair(c.Request.Context(), studentID, disciplineID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"enrollment": enrollment})
}

// Unenroll godoc
// DELETE /api/v1/disciplines/:id/students/:student_id
func (h *DisciplineHandler) Unenroll(c *gin.Context) {
	disciplineID, ok := parseID(c, "id")
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
	response.Success(c, http.StatusOK, gin.H{"message": "student unenrolled successfully"})
}

// ExportGrades godoc
// GET /api/v1/disciplines/:id/grades/export
// Downloads the discipline's grade records as an .xlsx workbook.
func (h *DisciplineHandler) ExportGrades(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	buf, filename, err := h.gradeService.ExportDiscipline(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
