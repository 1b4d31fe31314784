package model

import "time"

// Discipline is a subject taught in one course by one professor.
// CourseName and ProfessorName are filled by the storage layer on reads.
type Discipline struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	CourseID      int64     `json:"course_id"`
	CourseName    string    `json:"course_name"`
	ProfessorID   int64     `json:"professor_id"`
	ProfessorName string    `json:"professor_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DisciplineRequest is the payload for creating or updating a discipline.
type DisciplineRequest struct {
	Name        string `json:"name" binding:"required,notblank,max=100"`
	CourseID    int64  `json:"course_id" binding:"required,gt=0"`
	ProfessorID int64  `json:"professor_id" binding:"required,gt=0"`
}

// DisciplineFilter narrows a discipline listing. Nil fields are ignored.
type DisciplineFilter struct {
	CourseID    *int64
	ProfessorID *int64
}

// DisciplineResponse is the read shape of a discipline.
type DisciplineResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	CourseID      int64  `json:"course_id"`
	CourseName    string `json:"course_name"`
	ProfessorID   int64  `json:"professor_id"`
	ProfessorName string `json:"professor_name"`
}
