package domain

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

func strPtr(v string) *string { return &v }

func TestStudentPatchIgnoresFieldsOutsideMask(t *testing.T) {
	student := Student{ID: "s-7", Name: "Ada", RollNumber: "R100", Email: "ada@x.edu", Course: "CS"}

	patch := StudentPatch{
		Name:       strPtr("Ada L."),
		RollNumber: strPtr("R999"),
	}

	changed := patch.Apply(&student, KindStudent.SelfServiceMask())

	if student.Name != "Ada L." {
		t.Fatalf("expected name to change, got %q", student.Name)
	}
	if student.RollNumber != "R100" {
		t.Fatalf("expected roll number to stay R100, got %q", student.RollNumber)
	}
	if !slices.Equal(changed, []Field{FieldName}) {
		t.Fatalf("unexpected changed fields %v", changed)
	}
}

func TestStudentPatchClearsOptionalFields(t *testing.T) {
	student := Student{PhoneNumber: strPtr("555-0100")}

	changed := StudentPatch{PhoneNumber: strPtr("  ")}.Apply(&student, AllFields())

	if student.PhoneNumber != nil {
		t.Fatalf("expected phone number cleared")
	}
	if !slices.Equal(changed, []Field{FieldPhoneNumber}) {
		t.Fatalf("unexpected changed fields %v", changed)
	}
}

func TestPatchApplyIsIdempotent(t *testing.T) {
	course := Course{Name: "Algorithms", Code: "CS201", Credit: 3}
	credit := 4
	patch := CoursePatch{Name: strPtr("Algorithms II"), Credit: &credit}

	first := patch.Apply(&course, AllFields())
	second := patch.Apply(&course, AllFields())

	if len(first) != 2 {
		t.Fatalf("expected two changes on first apply, got %v", first)
	}
	if len(second) != 0 {
		t.Fatalf("expected no changes on second apply, got %v", second)
	}
}

func TestConflictErrorNamesField(t *testing.T) {
	err := fmt.Errorf("create student: %w", &ConflictError{Kind: KindStudent, Field: FieldRollNumber})

	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected errors.Is ErrConflict")
	}

	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.Field != FieldRollNumber {
		t.Fatalf("expected conflict on roll_number, got %v", err)
	}
	if conflict.Error() != "student with this roll_number already exists" {
		t.Fatalf("unexpected message %q", conflict.Error())
	}
}

func TestStorageErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := &StorageError{Op: "get student", Err: cause}

	if !errors.Is(err, ErrStorage) || !errors.Is(err, cause) {
		t.Fatalf("expected storage error to match ErrStorage and its cause")
	}
	if !IsClassified(err) {
		t.Fatalf("expected storage error to be classified")
	}
	if IsClassified(cause) {
		t.Fatalf("raw cause must not be classified")
	}
}
