package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/stemsi/gradebook-backend/internal/model"
	"github.com/stemsi/gradebook-backend/internal/repository"
	"github.com/xuri/excelize/v2"
)

const gradeSheet = "Grades"

var gradeSheetHeader = []interface{}{"Student", "Matricula", "Score 1", "Score 2", "Average", "Classification"}

// ExportDiscipline renders every grade record of a discipline as an .xlsx
// workbook ordered by student name. It returns the file and a suggested file name.
func (s *GradeService) ExportDiscipline(ctx context.Context, disciplineID int64) (*bytes.Buffer, string, error) {
	var (
		discipline *model.Discipline
		grades     []model.Grade
	)
	err := s.store.WithTx(ctx, func(r *repository.Repository) error {
		d, err := r.Disciplines.GetByID(ctx, disciplineID)
		if err != nil {
			return lookupErr(err, entityDiscipline, disciplineID)
		}
		discipline = d
		grades, err = r.Grades.List(ctx, model.PairFilter{DisciplineID: &disciplineID})
		return err
	})
	if err != nil {
		return nil, "", finish(err)
	}

	sort.SliceStable(grades, func(i, j int) bool {
		if grades[i].StudentName != grades[j].StudentName {
			return grades[i].StudentName < grades[j].StudentName
		}
		return grades[i].StudentID < grades[j].StudentID
	})

	buf, err := writeGradeWorkbook(discipline, grades)
	if err != nil {
		s.log.Error().Err(err).Int64("discipline_id", disciplineID).Msg("Failed to build grade workbook")
		return nil, "", finish(fmt.Errorf("build workbook: %w", err))
	}

	filename := fmt.Sprintf("grades_%s_%d.xlsx", slug(discipline.Name), discipline.ID)
	return buf, filename, nil
}

func writeGradeWorkbook(d *model.Discipline, grades []model.Grade) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(gradeSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(gradeSheet, "A", "A", 32)
	_ = f.SetColWidth(gradeSheet, "B", "B", 16)
	_ = f.SetColWidth(gradeSheet, "C", "E", 10)
	_ = f.SetColWidth(gradeSheet, "F", "F", 16)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	// Title row
	title := fmt.Sprintf("%s (%s) / %s", d.Name, d.CourseName, d.ProfessorName)
	if err := f.SetCellValue(gradeSheet, "A1", title); err != nil {
		return nil, err
	}
	_ = f.MergeCell(gradeSheet, "A1", "F1")

	if err := f.SetSheetRow(gradeSheet, "A2", &gradeSheetHeader); err != nil {
		return nil, err
	}
	_ = f.SetCellStyle(gradeSheet, "A2", "F2", headerStyle)

	for i, g := range grades {
		row := []interface{}{
			g.StudentName,
			g.Matricula,
			g.Score1.InexactFloat64(),
			g.Score2.InexactFloat64(),
			g.Average.InexactFloat64(),
			string(g.Classification),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(gradeSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// slug lowercases name and keeps only ASCII letters, digits, and dashes.
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "discipline"
	}
	return b.String()
}
