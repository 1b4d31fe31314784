package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/stemsi/gradebook-backend/internal/model"
)

const enrollmentSelect = `SELECT e.id, e.student_id, s.name, e.discipline_id, d.name, e.created_at
	FROM enrollments e
	JOIN students s ON s.id = e.student_id
	JOIN disciplines d ON d.id = e.discipline_id`

type enrollmentRepository struct {
	db DBTX
}

// pairWhere builds the WHERE clause for a student/discipline filter.
func pairWhere(filter model.PairFilter, studentCol, disciplineCol string) (string, []any) {
	var conds []string
	var args []any
	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		conds = append(conds, studentCol+` = $`+strconv.Itoa(len(args)))
	}
	if filter.DisciplineID != nil {
		args = append(args, *filter.DisciplineID)
		conds = append(conds, disciplineCol+` = $`+strconv.Itoa(len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

func scanEnrollment(row interface{ Scan(...any) error }, e *model.Enrollment) error {
	return row.Scan(&e.ID, &e.StudentID, &e.StudentName, &e.DisciplineID, &e.DisciplineName, &e.CreatedAt)
}

func (r *enrollmentRepository) Create(ctx context.Context, e *model.Enrollment) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO enrollments (student_id, discipline_id) VALUES ($1, $2) RETURNING id, created_at`,
		e.StudentID, e.DisciplineID).Scan(&e.ID, &e.CreatedAt)
	return mapError(err)
}

func (r *enrollmentRepository) GetByPair(ctx context.Context, studentID, disciplineID int64) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	err := scanEnrollment(r.db.QueryRow(ctx,
		enrollmentSelect+` WHERE e.student_id = $1 AND e.discipline_id = $2`, studentID, disciplineID), e)
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

func (r *enrollmentRepository) List(ctx context.Context, filter model.PairFilter) ([]model.Enrollment, error) {
	where, args := pairWhere(filter, "e.student_id", "e.discipline_id")
	rows, err := r.db.Query(ctx, enrollmentSelect+where+` ORDER BY e.id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enrollments := []model.Enrollment{}
	for rows.Next() {
		var e model.Enrollment
		if err := scanEnrollment(rows, &e); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

func (r *enrollmentRepository) Delete(ctx context.Context, id int64) error {
	return execAffecting(ctx, r.db, `DELETE FROM enrollments WHERE id = $1`, id)
}

func (r *enrollmentRepository) ExistsByStudentAndDiscipline(ctx context.Context, studentID, disciplineID int64) (bool, error) {
	return exists(ctx, r.db,
		`SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = $1 AND discipline_id = $2)`, studentID, disciplineID)
}

func (r *enrollmentRepository) CountByDiscipline(ctx context.Context, disciplineID int64) (int64, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM enrollments WHERE discipline_id = $1`, disciplineID)
}

func (r *enrollmentRepository) CountByStudent(ctx context.Context, studentID int64) (int64, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM enrollments WHERE student_id = $1`, studentID)
}
