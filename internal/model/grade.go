package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Classification is the outcome derived from a grade average.
type Classification string

const (
	ClassificationPass   Classification = "PASS"
	ClassificationRetake Classification = "RETAKE"
	ClassificationFail   Classification = "FAIL"
)

// Description returns the human-readable label of the classification.
func (c Classification) Description() string {
	switch c {
	case ClassificationPass:
		return "Passed"
	case ClassificationRetake:
		return "Retake exam"
	case ClassificationFail:
		return "Failed"
	default:
		return ""
	}
}

var (
	ErrAverageRequired = errors.New("average is required to classify a grade")
	ErrScoreOutOfRange = errors.New("score must be between 0.0 and 10.0")
	ErrScorePrecision  = errors.New("score must have at most one decimal place")
)

var (
	minScore        = decimal.Zero
	maxScore        = decimal.NewFromInt(10)
	passThreshold   = decimal.NewFromInt(7)
	retakeThreshold = decimal.NewFromInt(5)
	two             = decimal.NewFromInt(2)
)

// Classify maps an average to its classification. Thresholds are inclusive.
func Classify(average decimal.NullDecimal) (Classification, error) {
	if !average.Valid {
		return "", ErrAverageRequired
	}
	switch {
	case average.Decimal.GreaterThanOrEqual(passThreshold):
		return ClassificationPass, nil
	case average.Decimal.GreaterThanOrEqual(retakeThreshold):
		return ClassificationRetake, nil
	default:
		return ClassificationFail, nil
	}
}

// ComputeAverage returns (s1+s2)/2 rounded half away from zero to two places.
// Scores are never negative, so this is the usual half-up rounding.
func ComputeAverage(s1, s2 decimal.Decimal) decimal.Decimal {
	return s1.Add(s2).DivRound(two, 2)
}

// ValidateScore checks the allowed range and precision of a single score.
func ValidateScore(s decimal.Decimal) error {
	if s.LessThan(minScore) || s.GreaterThan(maxScore) {
		return ErrScoreOutOfRange
	}
	if !s.Equal(s.Truncate(1)) {
		return ErrScorePrecision
	}
	return nil
}

// Grade is the record of one student's scores in one discipline.
// Average and Classification are derived; use NewGrade and SetScores to change them.
type Grade struct {
	ID             int64           `json:"id"`
	StudentID      int64           `json:"student_id"`
	StudentName    string          `json:"student_name"`
	Matricula      string          `json:"matricula"`
	DisciplineID   int64           `json:"discipline_id"`
	DisciplineName string          `json:"discipline_name"`
	Score1         decimal.Decimal `json:"score1"`
	Score2         decimal.Decimal `json:"score2"`
	Average        decimal.Decimal `json:"average"`
	Classification Classification  `json:"classification"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewGrade builds a grade record with its average and classification already derived.
func NewGrade(studentID, disciplineID int64, s1, s2 decimal.Decimal) (*Grade, error) {
	g := &Grade{StudentID: studentID, DisciplineID: disciplineID}
	if err := g.SetScores(s1, s2); err != nil {
		return nil, err
	}
	return g, nil
}

// SetScores replaces both scores and re-derives average and classification together.
// On error the grade is left unchanged.
func (g *Grade) SetScores(s1, s2 decimal.Decimal) error {
	if err := ValidateScore(s1); err != nil {
		return err
	}
	if err := ValidateScore(s2); err != nil {
		return err
	}
	avg := ComputeAverage(s1, s2)
	class, err := Classify(decimal.NewNullDecimal(avg))
	if err != nil {
		return err
	}
	g.Score1 = s1
	g.Score2 = s2
	g.Average = avg
	g.Classification = class
	return nil
}

// GradeRequest is the payload for creating a grade record.
type GradeRequest struct {
	StudentID    int64            `json:"student_id" binding:"required,gt=0"`
	DisciplineID int64            `json:"discipline_id" binding:"required,gt=0"`
	Score1       *decimal.Decimal `json:"score1" binding:"required"`
	Score2       *decimal.Decimal `json:"score2" binding:"required"`
}

// GradeScoresRequest is the payload for updating the scores of a grade record.
type GradeScoresRequest struct {
	Score1 *decimal.Decimal `json:"score1" binding:"required"`
	Score2 *decimal.Decimal `json:"score2" binding:"required"`
}

// GradeResponse is the read shape of a grade record.
type GradeResponse struct {
	ID                  int64          `json:"id"`
	StudentID           int64          `json:"student_id"`
	StudentName         string         `json:"student_name"`
	DisciplineID        int64          `json:"discipline_id"`
	DisciplineName      string         `json:"discipline_name"`
	Score1              json.Number    `json:"score1"`
	Score2              json.Number    `json:"score2"`
	Average             json.Number    `json:"average"`
	Classification      Classification `json:"classification"`
	ClassificationLabel string         `json:"classification_label"`
}

// NewGradeResponse renders scores with one decimal place and the average with two.
func NewGradeResponse(g *Grade) GradeResponse {
	return GradeResponse{
		ID:                  g.ID,
		StudentID:           g.StudentID,
		StudentName:         g.StudentName,
		DisciplineID:        g.DisciplineID,
		DisciplineName:      g.DisciplineName,
		Score1:              json.Number(g.Score1.StringFixed(1)),
		Score2:              json.Number(g.Score2.StringFixed(1)),
		Average:             json.Number(g.Average.StringFixed(2)),
		Classification:      g.Classification,
		ClassificationLabel: g.Classification.Description(),
	}
}
