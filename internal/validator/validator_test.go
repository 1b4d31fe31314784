package validator

import (
	"testing"
)

type sample struct {
	Name      string `json:"name" binding:"required,notblank,max=5"`
	Matricula string `json:"matricula" binding:"required"`
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name       string
		in         sample
		wantFields []string
	}{
		{"valid", sample{Name: "Ada", Matricula: "1"}, nil},
		{"blank name", sample{Name: "   ", Matricula: "1"}, []string{"name"}},
		{"too long", sample{Name: "Ada Lovelace", Matricula: "1"}, []string{"name"}},
		{"missing both", sample{}, []string{"name", "matricula"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fields := Validate(tc.in)
			if len(fields) != len(tc.wantFields) {
				t.Fatalf("got fields %v, want keys %v", fields, tc.wantFields)
			}
			for _, f := range tc.wantFields {
				if fields[f] == "" {
					t.Errorf("missing message for %q in %v", f, fields)
				}
			}
		})
	}
}

func TestNotBlankTranslation(t *testing.T) {
	fields := Validate(sample{Name: " ", Matricula: "1"})
	if got := fields["name"]; got != "name must not be blank" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestNonPlaygroundEngineStillValidates(t *testing.T) {
	c := newChecker(struct{}{})

	fields := c.validate(sample{Name: " "})
	if got := fields["name"]; got != "name must not be blank" {
		t.Errorf("name message = %q (fields %v)", got, fields)
	}
	if fields["matricula"] == "" {
		t.Errorf("missing matricula message in %v", fields)
	}
	if fields := c.validate(sample{Name: "Ada", Matricula: "1"}); fields != nil {
		t.Errorf("valid sample rejected: %v", fields)
	}
}
