package model

import "time"

// Course represents a degree program that owns disciplines.
type Course struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisciplineSummary is the short form of a discipline embedded in course and professor results.
type DisciplineSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CourseRequest is the payload for creating or updating a course.
type CourseRequest struct {
	Name string `json:"name" binding:"required,notblank,max=100"`
}

// CourseResponse is the read shape of a course.
type CourseResponse struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Disciplines []DisciplineSummary `json:"disciplines"`
}
