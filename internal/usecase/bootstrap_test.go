package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/infra/config"
	"github.com/arklim/campus-records/internal/repository/memory"
)

func bootstrapSettings() config.BootstrapSettings {
	return config.BootstrapSettings{
		Enabled: true,
		Teacher: config.BootstrapRecord{Identifier: "teacher", Password: "teacher123", Name: "Default Teacher", Email: "teacher@campus.local", UniqueKey: "EMP-0001"},
		Student: config.BootstrapRecord{Identifier: "student", Password: "student123", Name: "Default Student", Email: "student@campus.local", UniqueKey: "ROLL-0001"},
	}
}

func TestBootstrapService_SeedIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	svc := NewBootstrapService(store, plainHasher{}, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := svc.Seed(ctx, bootstrapSettings())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if diff := cmp.Diff([]string{"teacher", "student"}, first.Created); diff != "" {
		t.Fatalf("created mismatch (-want +got):\n%s", diff)
	}

	second, err := svc.Seed(ctx, bootstrapSettings())
	if err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if len(second.Created) != 0 || len(second.Skipped) != 2 {
		t.Fatalf("expected everything skipped, got %+v", second)
	}

	student, err := store.Principals().GetByIdentifier(ctx, "student")
	if err != nil {
		t.Fatalf("GetByIdentifier: %v", err)
	}
	id, ok, err := store.OwnedRecordID(ctx, domain.KindStudent, student.ID)
	if err != nil || !ok {
		t.Fatalf("expected seeded student to own a record, ok=%v err=%v", ok, err)
	}
	record, _ := store.Students().GetByID(ctx, id)
	if record.RollNumber != "ROLL-0001" {
		t.Fatalf("unexpected seeded record %+v", record)
	}
}

func TestBootstrapService_LinksExistingRecord(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	if err := store.Teachers().Create(ctx, domain.Teacher{ID: "t-1", Name: "Existing", EmployeeID: "EMP-0001", Email: "existing@campus.local"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	cfg := bootstrapSettings()
	cfg.Student.Identifier = ""
	if _, err := NewBootstrapService(store, plainHasher{}, nil).Seed(ctx, cfg); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	teacher, _ := store.Teachers().GetByID(ctx, "t-1")
	principal, _ := store.Principals().GetByIdentifier(ctx, "teacher")
	if teacher.OwnerPrincipalID == nil || *teacher.OwnerPrincipalID != principal.ID {
		t.Fatalf("expected existing record to be linked")
	}
	teachers, _ := store.Teachers().List(ctx)
	if len(teachers) != 1 {
		t.Fatalf("expected no duplicate record, got %d", len(teachers))
	}
}

func TestBootstrapService_Disabled(t *testing.T) {
	store := memory.NewStore()
	cfg := bootstrapSettings()
	cfg.Enabled = false

	report, err := NewBootstrapService(store, plainHasher{}, nil).Seed(context.Background(), cfg)
	if err != nil || len(report.Created) != 0 {
		t.Fatalf("expected no-op, got %+v %v", report, err)
	}
}

func TestBootstrapService_OwnedKeyConflict(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	_ = store.Principals().Create(ctx, domain.Principal{ID: "p-x", Identifier: "someone", Role: domain.RoleStudent, Enabled: true})
	_ = store.Students().Create(ctx, domain.Student{ID: "s-1", Name: "Taken", RollNumber: "ROLL-0001", Email: "taken@campus.local", OwnerPrincipalID: strPtr("p-x")})

	cfg := bootstrapSettings()
	cfg.Teacher.Identifier = ""
	_, err := NewBootstrapService(store, plainHasher{}, nil).Seed(ctx, cfg)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if exists, _ := store.Principals().ExistsByIdentifier(ctx, "student"); exists {
		t.Fatalf("principal must be rolled back with the failed seed")
	}
}
