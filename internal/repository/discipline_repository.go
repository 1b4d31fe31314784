package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/stemsi/gradebook-backend/internal/model"
)

const disciplineSelect = `SELECT d.id, d.name, d.course_id, c.name, d.professor_id, p.name, d.created_at, d.updated_at
	FROM disciplines d
	JOIN courses c ON c.id = d.course_id
	JOIN professors p ON p.id = d.professor_id`

type disciplineRepository struct {
	db DBTX
}

func scanDiscipline(row interface{ Scan(...any) error }, d *model.Discipline) error {
	return row.Scan(&d.ID, &d.Name, &d.CourseID, &d.CourseName, &d.ProfessorID, &d.ProfessorName, &d.CreatedAt, &d.UpdatedAt)
}

func (r *disciplineRepository) Create(ctx context.Context, d *model.Discipline) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO disciplines (name, course_id, professor_id) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		d.Name, d.CourseID, d.ProfessorID).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	return mapError(err)
}

func (r *disciplineRepository) GetByID(ctx context.Context, id int64) (*model.Discipline, error) {
	d := &model.Discipline{}
	if err := scanDiscipline(r.db.QueryRow(ctx, disciplineSelect+` WHERE d.id = $1`, id), d); err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

func (r *disciplineRepository) List(ctx context.Context, filter model.DisciplineFilter) ([]model.Discipline, error) {
	var conds []string
	var args []any
	if filter.CourseID != nil {
		args = append(args, *filter.CourseID)
		conds = append(conds, `d.course_id = $`+strconv.Itoa(len(args)))
	}
	if filter.ProfessorID != nil {
		args = append(args, *filter.ProfessorID)
		conds = append(conds, `d.professor_id = $`+strconv.Itoa(len(args)))
	}

	query := disciplineSelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY d.name ASC, d.id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	disciplines := []model.Discipline{}
	for rows.Next() {
		var d model.Discipline
		if err := scanDiscipline(rows, &d); err != nil {
			return nil, err
		}
		disciplines = append(disciplines, d)
	}
	return disciplines, rows.Err()
}

func (r *disciplineRepository) Update(ctx context.Context, d *model.Discipline) error {
	err := r.db.QueryRow(ctx,
		`UPDATE disciplines SET name = $1, course_id = $2, professor_id = $3, updated_at = NOW()
		 WHERE id = $4 RETURNING updated_at`,
		d.Name, d.CourseID, d.ProfessorID, d.ID).Scan(&d.UpdatedAt)
	return mapError(err)
}

func (r *disciplineRepository) Delete(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, `DELETE FROM disciplines WHERE id = $1`, id)
}

func (r *disciplineRepository) ExistsByNameInCourse(ctx context.Context, name string, courseID int64) (bool, error) {
	return exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM disciplines WHERE name = $1 AND course_id = $2)`, name, courseID)
}

func (r *disciplineRepository) ExistsByNameInCourseExcludingID(ctx context.Context, name string, courseID, id int64) (bool, error) {
	return exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM disciplines WHERE name = $1 AND course_id = $2 AND id <> $3)`, name, courseID, id)
}

func (r *disciplineRepository) CountByCourse(ctx context.Context, courseID int64) (int64, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM disciplines WHERE course_id = $1`, courseID)
}

func (r *disciplineRepository) CountByProfessor(ctx context.Context, professorID int64) (int64, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM disciplines WHERE professor_id = $1`, professorID)
}

func (r *disciplineRepository) SummariesByCourse(ctx context.Context, courseID int64) ([]model.DisciplineSummary, error) {
	return r.summaries(ctx, `SELECT id, name FROM disciplines WHERE course_id = $1 ORDER BY name ASC, id ASC`, courseID)
}

func (r *disciplineRepository) SummariesByProfessor(ctx context.Context, professorID int64) ([]model.DisciplineSummary, error) {
	return r.summaries(ctx, `SELECT id, name FROM disciplines WHERE professor_id = $1 ORDER BY name ASC, id ASC`, professorID)
}

func (r *disciplineRepository) summaries(ctx context.Context, sql string, id int64) ([]model.DisciplineSummary, error) {
	rows, err := r.db.Query(ctx, sql, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.DisciplineSummary{}
	for rows.Next() {
		var s model.DisciplineSummary
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
