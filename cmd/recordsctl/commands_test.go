package main

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/repository/memory"
)

func TestListRecords(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	course := domain.Course{ID: "c-1", Name: "Algebra", Code: "MA101", Credit: 3}
	if err := store.Courses().Create(ctx, course); err != nil {
		t.Fatalf("seed course: %v", err)
	}

	kind, err := domain.ParseKind("courses")
	if err != nil {
		t.Fatalf("ParseKind: %v", err)
	}
	got, err := listRecords(ctx, store, kind)
	if err != nil {
		t.Fatalf("listRecords returned error: %v", err)
	}
	if diff := cmp.Diff([]domain.Course{course}, got); diff != "" {
		t.Fatalf("unexpected courses (-want +got):\n%s", diff)
	}

	students, err := listRecords(ctx, store, domain.KindStudent)
	if err != nil {
		t.Fatalf("listRecords returned error: %v", err)
	}
	if list, ok := students.([]domain.Student); !ok || len(list) != 0 {
		t.Fatalf("expected no students, got %#v", students)
	}
}
