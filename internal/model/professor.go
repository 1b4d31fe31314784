package model

import "time"

// Professor represents a lecturer responsible for disciplines.
type Professor struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Registration string    `json:"registration"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProfessorRequest is the payload for creating or updating a professor.
type ProfessorRequest struct {
	Name         string `json:"name" binding:"required,notblank,max=100"`
	Registration string `json:"registration" binding:"required,notblank,max=20"`
}

// ProfessorResponse is the read shape of a professor.
type ProfessorResponse struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	Registration string              `json:"registration"`
	Disciplines  []DisciplineSummary `json:"disciplines"`
}
