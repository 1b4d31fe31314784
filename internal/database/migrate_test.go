package database

import (
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	src, err := embeddedSource()
	if err != nil {
		t.Fatalf("embeddedSource: %v", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}

	var versions []uint
	for {
		versions = append(versions, version)

		up, _, err := src.ReadUp(version)
		if err != nil {
			t.Fatalf("ReadUp(%d): %v", version, err)
		}
		up.Close()
		down, _, err := src.ReadDown(version)
		if err != nil {
			t.Fatalf("ReadDown(%d): %v", version, err)
		}
		down.Close()

		next, err := src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			t.Fatalf("Next(%d): %v", version, err)
		}
		version = next
	}

	if len(versions) != 2 || versions[0] != 1 || versions[1] != 2 {
		t.Errorf("versions = %v, want [1 2]", versions)
	}
}

func TestInitSchemaDeclaresNaturalKeys(t *testing.T) {
	src, err := embeddedSource()
	if err != nil {
		t.Fatalf("embeddedSource: %v", err)
	}
	defer src.Close()

	r, _, err := src.ReadUp(1)
	if err != nil {
		t.Fatalf("ReadUp: %v", err)
	}
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	for _, constraint := range []string{
		"UNIQUE (name)",
		"UNIQUE (registration)",
		"UNIQUE (matricula)",
		"UNIQUE (name, course_id)",
		"UNIQUE (student_id, discipline_id)",
	} {
		if !strings.Contains(string(body), constraint) {
			t.Errorf("init schema is missing %q", constraint)
		}
	}
}
