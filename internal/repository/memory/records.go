package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/samber/lo"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/repository"
)

type studentRepo struct{ v view }

func checkStudent(d *dataset, s domain.Student) error {
	for _, other := range d.students {
		if other.ID == s.ID {
			continue
		}
		switch {
		case other.RollNumber == s.RollNumber:
			return &domain.ConflictError{Kind: domain.KindStudent, Field: domain.FieldRollNumber}
		case other.Email == s.Email:
			return &domain.ConflictError{Kind: domain.KindStudent, Field: domain.FieldEmail}
		case s.OwnerPrincipalID != nil && ownedBy(other.OwnerPrincipalID, *s.OwnerPrincipalID):
			return &domain.ConflictError{Kind: domain.KindStudent, Field: domain.FieldOwnerPrincipalID}
		}
	}
	return checkOwner(d, s.OwnerPrincipalID)
}

func (r studentRepo) Create(_ context.Context, s domain.Student) error {
	return r.v.read(func(d *dataset) error {
		if err := checkStudent(d, s); err != nil {
			return err
		}
		d.students[s.ID] = s
		return nil
	})
}

func (r studentRepo) Update(_ context.Context, s domain.Student) error {
	return r.v.read(func(d *dataset) error {
		if _, ok := d.students[s.ID]; !ok {
			return repository.ErrNotFound
		}
		if err := checkStudent(d, s); err != nil {
			return err
		}
		d.students[s.ID] = s
		return nil
	})
}

func (r studentRepo) Delete(_ context.Context, id string) error {
	return r.v.read(func(d *dataset) error {
		if _, ok := d.students[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.students, id)
		return nil
	})
}

func (r studentRepo) find(match func(domain.Student) bool) (*domain.Student, error) {
	var out *domain.Student
	err := r.v.read(func(d *dataset) error {
		s, ok := lo.Find(lo.Values(d.students), match)
		if !ok {
			return repository.ErrNotFound
		}
		out = &s
		return nil
	})
	return out, err
}

func (r studentRepo) GetByID(_ context.Context, id string) (*domain.Student, error) {
	return r.find(func(s domain.Student) bool { return s.ID == id })
}

func (r studentRepo) GetByRollNumber(_ context.Context, rollNumber string) (*domain.Student, error) {
	return r.find(func(s domain.Student) bool { return s.RollNumber == rollNumber })
}

func (r studentRepo) GetByOwner(_ context.Context, principalID string) (*domain.Student, error) {
	return r.find(func(s domain.Student) bool { return ownedBy(s.OwnerPrincipalID, principalID) })
}

func (r studentRepo) ExistsByRollNumber(ctx context.Context, rollNumber string) (bool, error) {
	_, err := r.GetByRollNumber(ctx, rollNumber)
	return found(err)
}

func (r studentRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, err := r.find(func(s domain.Student) bool { return s.Email == email })
	return found(err)
}

func (r studentRepo) List(_ context.Context) ([]domain.Student, error) {
	var out []domain.Student
	err := r.v.read(func(d *dataset) error {
		out = lo.Values(d.students)
		slices.SortFunc(out, func(a, b domain.Student) int { return cmp.Compare(a.RollNumber, b.RollNumber) })
		return nil
	})
	return out, err
}

type teacherRepo struct{ v view }

func checkTeacher(d *dataset, t domain.Teacher) error {
	for _, other := range d.teachers {
		if other.ID == t.ID {
			continue
		}
		switch {
		case other.EmployeeID == t.EmployeeID:
			return &domain.ConflictError{Kind: domain.KindTeacher, Field: domain.FieldEmployeeID}
		case other.Email == t.Email:
			return &domain.ConflictError{Kind: domain.KindTeacher, Field: domain.FieldEmail}
		case t.OwnerPrincipalID != nil && ownedBy(other.OwnerPrincipalID, *t.OwnerPrincipalID):
			return &domain.ConflictError{Kind: domain.KindTeacher, Field: domain.FieldOwnerPrincipalID}
		}
	}
	return checkOwner(d, t.OwnerPrincipalID)
}

func (r teacherRepo) Create(_ context.Context, t domain.Teacher) error {
	return r.v.read(func(d *dataset) error {
		if err := checkTeacher(d, t); err != nil {
			return err
		}
		d.teachers[t.ID] = t
		return nil
	})
}

func (r teacherRepo) Update(_ context.Context, t domain.Teacher) error {
	return r.v.read(func(d *dataset) error {
		if _, ok := d.teachers[t.ID]; !ok {
			return repository.ErrNotFound
		}
		if err := checkTeacher(d, t); err != nil {
			return err
		}
		d.teachers[t.ID] = t
		return nil
	})
}

func (r teacherRepo) Delete(_ context.Context, id string) error {
	return r.v.read(func(d *dataset) error {
		if _, ok := d.teachers[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.teachers, id)
		return nil
	})
}

func (r teacherRepo) find(match func(domain.Teacher) bool) (*domain.Teacher, error) {
	var out *domain.Teacher
	err := r.v.read(func(d *dataset) error {
		t, ok := lo.Find(lo.Values(d.teachers), match)
		if !ok {
			return repository.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r teacherRepo) GetByID(_ context.Context, id string) (*domain.Teacher, error) {
	return r.find(func(t domain.Teacher) bool { return t.ID == id })
}

func (r teacherRepo) GetByEmployeeID(_ context.Context, employeeID string) (*domain.Teacher, error) {
	return r.find(func(t domain.Teacher) bool { return t.EmployeeID == employeeID })
}

func (r teacherRepo) GetByOwner(_ context.Context, principalID string) (*domain.Teacher, error) {
	return r.find(func(t domain.Teacher) bool { return ownedBy(t.OwnerPrincipalID, principalID) })
}

func (r teacherRepo) ExistsByEmployeeID(ctx context.Context, employeeID string) (bool, error) {
	_, err := r.GetByEmployeeID(ctx, employeeID)
	return found(err)
}

func (r teacherRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, err := r.find(func(t domain.Teacher) bool { return t.Email == email })
	return found(err)
}

func (r teacherRepo) List(_ context.Context) ([]domain.Teacher, error) {
	var out []domain.Teacher
	err := r.v.read(func(d *dataset) error {
		out = lo.Values(d.teachers)
		slices.SortFunc(out, func(a, b domain.Teacher) int { return cmp.Compare(a.EmployeeID, b.EmployeeID) })
		return nil
	})
	return out, err
}

type courseRepo struct{ v view }

func checkCourse(d *dataset, c domain.Course) error {
	for _, other := range d.courses {
		if other.ID != c.ID && other.Code == c.Code {
			return &domain.ConflictError{Kind: domain.KindCourse, Field: domain.FieldCode}
		}
	}
	return nil
}

func (r courseRepo) Create(_ context.Context, c domain.Course) error {
	return r.v.read(func(d *dataset) error {
		if err := checkCourse(d, c); err != nil {
			return err
		}
		d.courses[c.ID] = c
		return nil
	})
}

func (r courseRepo) Update(_ context.Context, c domain.Course) error {
	return r.v.read(func(d *dataset) error {
		if _, ok := d.courses[c.ID]; !ok {
			return repository.ErrNotFound
		}
		if err := checkCourse(d, c); err != nil {
			return err
		}
		d.courses[c.ID] = c
		return nil
	})
}

func (r courseRepo) Delete(_ context.Context, id string) error {
	return r.v.read(func(d *dataset) error {
		if _, ok := d.courses[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.courses, id)
		return nil
	})
}

func (r courseRepo) find(match func(domain.Course) bool) (*domain.Course, error) {
	var out *domain.Course
	err := r.v.read(func(d *dataset) error {
		c, ok := lo.Find(lo.Values(d.courses), match)
		if !ok {
			return repository.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r courseRepo) GetByID(_ context.Context, id string) (*domain.Course, error) {
	return r.find(func(c domain.Course) bool { return c.ID == id })
}

func (r courseRepo) GetByCode(_ context.Context, code string) (*domain.Course, error) {
	return r.find(func(c domain.Course) bool { return c.Code == code })
}

func (r courseRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	return found(err)
}

func (r courseRepo) List(_ context.Context) ([]domain.Course, error) {
	var out []domain.Course
	err := r.v.read(func(d *dataset) error {
		out = lo.Values(d.courses)
		slices.SortFunc(out, func(a, b domain.Course) int { return cmp.Compare(a.Code, b.Code) })
		return nil
	})
	return out, err
}

type departmentRepo struct{ v view }

func checkDepartment(d *dataset, dep domain.Department) error {
	for _, other := range d.departments {
		if other.ID != dep.ID && other.Name == dep.Name {
			return &domain.ConflictError{Kind: domain.KindDepartment, Field: domain.FieldName}
		}
	}
	return nil
}

func (r departmentRepo) Create(_ context.Context, dep domain.Department) error {
	return r.v.read(func(d *dataset) error {
		if err := checkDepartment(d, dep); err != nil {
			return err
		}
		d.departments[dep.ID] = dep
		return nil
	})
}

func (r departmentRepo) Update(_ context.Context, dep domain.Department) error {
	return r.v.read(func(d *dataset) error {
		if _, ok := d.departments[dep.ID]; !ok {
			return repository.ErrNotFound
		}
		if err := checkDepartment(d, dep); err != nil {
			return err
		}
		d.departments[dep.ID] = dep
		return nil
	})
}

func (r departmentRepo) Delete(_ context.Context, id string) error {
	return r.v.read(func(d *dataset) error {
		if _, ok := d.departments[id]; !ok {
			return repository.ErrNotFound
		}
		delete(d.departments, id)
		return nil
	})
}

func (r departmentRepo) find(match func(domain.Department) bool) (*domain.Department, error) {
	var out *domain.Department
	err := r.v.read(func(d *dataset) error {
		dep, ok := lo.Find(lo.Values(d.departments), match)
		if !ok {
			return repository.ErrNotFound
		}
		out = &dep
		return nil
	})
	return out, err
}

func (r departmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	return r.find(func(dep domain.Department) bool { return dep.ID == id })
}

func (r departmentRepo) GetByName(_ context.Context, name string) (*domain.Department, error) {
	return r.find(func(dep domain.Department) bool { return dep.Name == name })
}

func (r departmentRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	_, err := r.GetByName(ctx, name)
	return found(err)
}

func (r departmentRepo) List(_ context.Context) ([]domain.Department, error) {
	var out []domain.Department
	err := r.v.read(func(d *dataset) error {
		out = lo.Values(d.departments)
		slices.SortFunc(out, func(a, b domain.Department) int { return cmp.Compare(a.Name, b.Name) })
		return nil
	})
	return out, err
}
