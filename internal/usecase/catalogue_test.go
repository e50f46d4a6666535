package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/arklim/campus-records/internal/core/domain"
)

func TestCourseService_TeacherManagesCatalogue(t *testing.T) {
	env := newRecordsEnv(t)
	ctx := context.Background()
	teacher := teacherPrincipal()

	course, err := env.courses.Create(ctx, teacher, CourseInput{Name: "Algorithms", Code: "CS101", Credit: 4})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := env.courses.Create(ctx, teacher, CourseInput{Name: "Algorithms II", Code: "CS101", Credit: 4}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected code conflict, got %v", err)
	}

	credit := 5
	updated, err := env.courses.Update(ctx, teacher, course.ID, domain.CoursePatch{Credit: &credit})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Credit != 5 {
		t.Fatalf("expected credit 5, got %d", updated.Credit)
	}

	if err := env.courses.Delete(ctx, teacher, course.ID, DeleteOptions{}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := env.courses.Get(ctx, teacher, course.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestCourseService_StudentsReadOnly(t *testing.T) {
	env := newRecordsEnv(t)
	ctx := context.Background()
	student, _ := env.addStudentAccount(t, "ada", "R100")

	course, err := env.courses.Create(ctx, teacherPrincipal(), CourseInput{Name: "Algorithms", Code: "CS101", Credit: 4})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := env.courses.Create(ctx, student, CourseInput{Name: "Hacking", Code: "HK1"}); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected create to be denied, got %v", err)
	}
	if _, err := env.courses.Update(ctx, student, course.ID, domain.CoursePatch{Name: strPtr("x")}); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected update to be denied, got %v", err)
	}
	if err := env.courses.Delete(ctx, student, course.ID, DeleteOptions{}); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected delete to be denied, got %v", err)
	}

	courses, err := env.courses.List(ctx, student)
	if err != nil || len(courses) != 1 {
		t.Fatalf("expected student to list courses, got %v %v", courses, err)
	}
}

func TestCourseService_RejectsNegativeCredit(t *testing.T) {
	env := newRecordsEnv(t)

	_, err := env.courses.Create(context.Background(), teacherPrincipal(), CourseInput{Name: "Algorithms", Code: "CS101", Credit: -1})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != string(domain.FieldCredit) {
		t.Fatalf("expected credit validation error, got %v", err)
	}
}

func TestDepartmentService_RenameConflict(t *testing.T) {
	env := newRecordsEnv(t)
	ctx := context.Background()
	teacher := teacherPrincipal()

	maths, err := env.departments.Create(ctx, teacher, DepartmentInput{Name: "Mathematics"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := env.departments.Create(ctx, teacher, DepartmentInput{Name: "Physics", Description: strPtr("Matter and energy")}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = env.departments.Update(ctx, teacher, maths.ID, domain.DepartmentPatch{Name: strPtr("Physics")})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) || conflict.Field != domain.FieldName || conflict.Kind != domain.KindDepartment {
		t.Fatalf("expected department name conflict, got %v", err)
	}
	if conflict.Error() != "department with this name already exists" {
		t.Fatalf("unexpected message %q", conflict.Error())
	}

	updated, err := env.departments.Update(ctx, teacher, maths.ID, domain.DepartmentPatch{Description: strPtr("Numbers")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Description == nil || *updated.Description != "Numbers" {
		t.Fatalf("unexpected description %v", updated.Description)
	}
}

func TestTeacherService_SelfServiceMask(t *testing.T) {
	env := newRecordsEnv(t)
	ctx := context.Background()

	created, err := env.teachers.Create(ctx, teacherPrincipal(), TeacherInput{
		Name: "Grace", EmployeeID: "E1", Email: "grace@x.edu",
		Account: &AccountInput{Identifier: "grace", Password: "pw"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.OwnerPrincipalID == nil {
		t.Fatalf("expected owner link")
	}

	if _, err := env.teachers.Create(ctx, teacherPrincipal(), TeacherInput{Name: "Alan", EmployeeID: "E2", Email: "grace@x.edu"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected email conflict, got %v", err)
	}

	student, _ := env.addStudentAccount(t, "ada", "R100")
	if _, err := env.teachers.Update(ctx, student, created.ID, domain.TeacherPatch{Name: strPtr("x")}); !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("students may not edit teachers, got %v", err)
	}
}

func TestTeacherService_Delete_CannotCascadeOwnAccount(t *testing.T) {
	env := newRecordsEnv(t)
	ctx := context.Background()

	created, err := env.teachers.Create(ctx, teacherPrincipal(), TeacherInput{
		Name: "Grace", EmployeeID: "E1", Email: "grace@x.edu",
		Account: &AccountInput{Identifier: "grace", Password: "pw"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	grace, err := env.store.Principals().GetByIdentifier(ctx, "grace")
	if err != nil {
		t.Fatalf("load principal: %v", err)
	}

	err = env.teachers.Delete(ctx, *grace, created.ID, DeleteOptions{CascadeOwner: true})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) || validation.Field != "cascade" {
		t.Fatalf("expected cascade validation error, got %v", err)
	}
	if _, err := env.teachers.Get(ctx, *grace, created.ID); err != nil {
		t.Fatalf("record must survive the refused delete: %v", err)
	}

	if err := env.teachers.Delete(ctx, *grace, created.ID, DeleteOptions{}); err != nil {
		t.Fatalf("orphaning delete returned error: %v", err)
	}
	if _, err := env.store.Principals().GetByID(ctx, grace.ID); err != nil {
		t.Fatalf("principal must remain after orphaning delete: %v", err)
	}
}
