package model

import "time"

// Student represents an enrolled student, identified by their matricula.
type Student struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Matricula string    `json:"matricula"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StudentRequest is the payload for creating or updating a student.
type StudentRequest struct {
	Name      string `json:"name" binding:"required,notblank,max=100"`
	Matricula string `json:"matricula" binding:"required,notblank,max=20"`
}

// StudentResponse is the read shape of a student.
type StudentResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Matricula string `json:"matricula"`
}
