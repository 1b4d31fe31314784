package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection reset")
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("name is required"), KindValidation},
		{"duplicate", Duplicate("already exists", cause), KindValidation},
		{"not found", NotFoundf("course %d not found", 7), KindNotFound},
		{"integrity", Integrityf("course has %d discipline(s)", 1), KindIntegrity},
		{"persistence", Persistence(cause), KindPersistence},
		{"wrapped", fmt.Errorf("enroll: %w", NotFoundf("student 1 not found")), KindNotFound},
		{"plain", cause, KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestPersistenceUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Persistence(cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected Persistence error to unwrap to its cause")
	}
	if !IsPersistence(err) || IsValidation(err) {
		t.Fatal("unexpected kind predicates")
	}
}

func TestErrorMessage(t *testing.T) {
	if got := NotFoundf("course %d not found", 3).Error(); got != "course 3 not found" {
		t.Errorf("unexpected message %q", got)
	}
	if got := Persistence(errors.New("boom")).Error(); got != "storage operation failed: boom" {
		t.Errorf("unexpected message %q", got)
	}
}
