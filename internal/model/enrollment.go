package model

import "time"

// Enrollment links one student to one discipline.
type Enrollment struct {
	ID             int64     `json:"id"`
	StudentID      int64     `json:"student_id"`
	StudentName    string    `json:"student_name"`
	DisciplineID   int64     `json:"discipline_id"`
	DisciplineName string    `json:"discipline_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// EnrollmentRequest is the payload for enrolling a student.
type EnrollmentRequest struct {
	StudentID    int64 `json:"student_id" binding:"required,gt=0"`
	DisciplineID int64 `json:"discipline_id" binding:"required,gt=0"`
}

// PairFilter narrows association listings (enrollments, grades) by student and/or discipline.
type PairFilter struct {
	StudentID    *int64
	DisciplineID *int64
}

// EnrollmentResponse is the read shape of an enrollment.
type EnrollmentResponse struct {
	ID             int64  `json:"id"`
	StudentID      int64  `json:"student_id"`
	StudentName    string `json:"student_name"`
	DisciplineID   int64  `json:"discipline_id"`
	DisciplineName string `json:"discipline_name"`
}
