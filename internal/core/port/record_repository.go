package port

import (
	"context"

	"github.com/arklim/campus-records/internal/core/domain"
)

// StudentRepository persists student records.
type StudentRepository interface {
	Create(ctx context.Context, student domain.Student) error
	Update(ctx context.Context, student domain.Student) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Student, error)
	GetByRollNumber(ctx context.Context, rollNumber string) (*domain.Student, error)
	GetByOwner(ctx context.Context, principalID string) (*domain.Student, error)
	ExistsByRollNumber(ctx context.Context, rollNumber string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]domain.Student, error)
}

// TeacherRepository persists teacher records.
type TeacherRepository interface {
	Create(ctx context.Context, teacher domain.Teacher) error
	Update(ctx context.Context, teacher domain.Teacher) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Teacher, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*domain.Teacher, error)
	GetByOwner(ctx context.Context, principalID string) (*domain.Teacher, error)
	ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]domain.Teacher, error)
}

// CourseRepository persists course records.
type CourseRepository interface {
	Create(ctx context.Context, course domain.Course) error
	Update(ctx context.Context, course domain.Course) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	GetByCode(ctx context.Context, code string) (*domain.Course, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	List(ctx context.Context) ([]domain.Course, error)
}

// DepartmentRepository persists department records.
type DepartmentRepository interface {
	Create(ctx context.Context, department domain.Department) error
	Update(ctx context.Context, department domain.Department) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	GetByName(ctx context.Context, name string) (*domain.Department, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]domain.Department, error)
}

// OwnershipResolver answers which record of a kind a principal owns.
// ok is false when the principal owns no record of that kind.
type OwnershipResolver interface {
	OwnedRecordID(ctx context.Context, kind domain.Kind, principalID string) (id string, ok bool, err error)
}
