package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stemsi/gradebook-backend/internal/model"
)

// Numerics travel as text so no precision is lost between decimal.Decimal and NUMERIC.
const gradeSelect = `SELECT g.id, g.student_id, s.name, s.matricula, g.discipline_id, d.name,
	g.score1::text, g.score2::text, g.created_at, g.updated_at
	FROM grades g
	JOIN students s ON s.id = g.student_id
	JOIN disciplines d ON d.id = g.discipline_id`

type gradeRepository struct {
	db DBTX
}

// scanGrade loads a row and re-derives average and classification from the scores.
func scanGrade(row interface{ Scan(...any) error }, g *model.Grade) error {
	var s1, s2 string
	if err := row.Scan(&g.ID, &g.StudentID, &g.StudentName, &g.Matricula, &g.DisciplineID, &g.DisciplineName,
		&s1, &s2, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return err
	}
	d1, err := decimal.NewFromString(s1)
	if err != nil {
		return fmt.Errorf("grade %d score1: %w", g.ID, err)
	}
	d2, err := decimal.NewFromString(s2)
	if err != nil {
		return fmt.Errorf("grade %d score2: %w", g.ID, err)
	}
	return g.SetScores(d1, d2)
}

func (r *gradeRepository) Create(ctx context.Context, g *model.Grade) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO grades (student_id, discipline_id, score1, score2, average, classification)
		 VALUES ($1, $2, $3::text::numeric, $4::text::numeric, $5::text::numeric, $6)
		 RETURNING id, created_at, updated_at`,
		g.StudentID, g.DisciplineID, g.Score1.String(), g.Score2.String(), g.Average.String(), string(g.Classification),
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	return mapError(err)
}

func (r *gradeRepository) GetByID(ctx context.Context, id int64) (*model.Grade, error) {
	g := &model.Grade{}
	if err := scanGrade(r.db.QueryRow(ctx, gradeSelect+` WHERE g.id = $1`, id), g); err != nil {
		return nil, mapError(err)
	}
	return g, nil
}

func (r *gradeRepository) List(ctx context.Context, filter model.PairFilter) ([]model.Grade, error) {
	where, args := pairWhere(filter, "g.student_id", "g.discipline_id")
	rows, err := r.db.Query(ctx, gradeSelect+where+` ORDER BY g.id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grades := []model.Grade{}
	for rows.Next() {
		var g model.Grade
		if err := scanGrade(rows, &g); err != nil {
			return nil, err
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// Update persists the scores and their derived fields. The student/discipline pair is immutable.
func (r *gradeRepository) Update(ctx context.Context, g *model.Grade) error {
	err := r.db.QueryRow(ctx,
		`UPDATE grades SET score1 = $1::text::numeric, score2 = $2::text::numeric,
		 average = $3::text::numeric, classification = $4, updated_at = NOW()
		 WHERE id = $5 RETURNING updated_at`,
		g.Score1.String(), g.Score2.String(), g.Average.String(), string(g.Classification), g.ID,
	).Scan(&g.UpdatedAt)
	return mapError(err)
}

func (r *gradeRepository) Delete(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, `DELETE FROM grades WHERE id = $1`, id)
}

func (r *gradeRepository) ExistsByStudentAndDiscipline(ctx context.Context, studentID, disciplineID int64) (bool, error) {
	return exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM grades WHERE student_id = $1 AND discipline_id = $2)`, studentID, disciplineID)
}

func (r *gradeRepository) CountByDiscipline(ctx context.Context, disciplineID int64) (int64, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM grades WHERE discipline_id = $1`, disciplineID)
}

func (r *gradeRepository) CountByStudent(ctx context.Context, studentID int64) (int64, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM grades WHERE student_id = $1`, studentID)
}
