package port

import "context"

// Repositories groups the repositories that take part in one unit of work.
type Repositories interface {
	Principals() PrincipalRepository
	Students() StudentRepository
	Teachers() TeacherRepository
	Courses() CourseRepository
	Departments() DepartmentRepository
}

// Transactor runs fn atomically. Repositories handed to fn see each other's
// writes; any error returned by fn rolls every write back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store is the full persistence surface consumed by the record services.
type Store interface {
	Repositories
	Transactor
	OwnershipResolver
	Ping(ctx context.Context) error
}
