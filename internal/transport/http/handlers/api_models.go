package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/transport/http/middleware"
	"github.com/arklim/campus-records/internal/usecase"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// PrincipalSummary describes the signed-in account.
type PrincipalSummary struct {
	ID         string      `json:"id"`
	Identifier string      `json:"identifier"`
	Role       domain.Role `json:"role"`
}

func newPrincipalSummary(p domain.Principal) PrincipalSummary {
	return PrincipalSummary{ID: p.ID, Identifier: p.Identifier, Role: p.Role}
}

// AuthLoginRequest defines the payload for the login endpoint.
type AuthLoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// AuthLoginResponse describes the response returned for a successful login.
type AuthLoginResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int              `json:"expires_in"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Principal   PrincipalSummary `json:"principal"`
}

// AccountRequest creates a login account together with a student or teacher record.
type AccountRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (r *AccountRequest) toInput() *usecase.AccountInput {
	if r == nil {
		return nil
	}
	return &usecase.AccountInput{Identifier: r.Username, Password: r.Password}
}

// StudentRequest is the create payload for students.
type StudentRequest struct {
	Name             string          `json:"name" binding:"required"`
	RollNumber       string          `json:"roll_number" binding:"required"`
	Email            string          `json:"email" binding:"required,email"`
	Course           string          `json:"course"`
	PhoneNumber      *string         `json:"phone_number"`
	Address          *string         `json:"address"`
	OwnerPrincipalID *string         `json:"owner_principal_id"`
	Account          *AccountRequest `json:"account"`
}

func (r StudentRequest) toInput() usecase.StudentInput {
	return usecase.StudentInput{
		Name:             r.Name,
		RollNumber:       r.RollNumber,
		Email:            r.Email,
		Course:           r.Course,
		PhoneNumber:      r.PhoneNumber,
		Address:          r.Address,
		OwnerPrincipalID: r.OwnerPrincipalID,
		Account:          r.Account.toInput(),
	}
}

// StudentPatchRequest is the update payload for students. Absent fields are left unchanged.
type StudentPatchRequest struct {
	Name             *string `json:"name"`
	RollNumber       *string `json:"roll_number"`
	Email            *string `json:"email" binding:"omitempty,email"`
	Course           *string `json:"course"`
	PhoneNumber      *string `json:"phone_number"`
	Address          *string `json:"address"`
	OwnerPrincipalID *string `json:"owner_principal_id"`
}

func (r StudentPatchRequest) toPatch() domain.StudentPatch {
	return domain.StudentPatch(r)
}

// StudentResponse is the public shape of a student record.
type StudentResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	RollNumber       string    `json:"roll_number"`
	Email            string    `json:"email"`
	Course           string    `json:"course"`
	PhoneNumber      *string   `json:"phone_number,omitempty"`
	Address          *string   `json:"address,omitempty"`
	OwnerPrincipalID *string   `json:"owner_principal_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newStudentResponse(s domain.Student) StudentResponse {
	return StudentResponse(s)
}

// TeacherRequest is the create payload for teachers.
type TeacherRequest struct {
	Name             string          `json:"name" binding:"required"`
	EmployeeID       string          `json:"employee_id" binding:"required"`
	Email            string          `json:"email" binding:"required,email"`
	Department       *string         `json:"department"`
	OwnerPrincipalID *string         `json:"owner_principal_id"`
	Account          *AccountRequest `json:"account"`
}

func (r TeacherRequest) toInput() usecase.TeacherInput {
	return usecase.TeacherInput{
		Name:             r.Name,
		EmployeeID:       r.EmployeeID,
		Email:            r.Email,
		Department:       r.Department,
		OwnerPrincipalID: r.OwnerPrincipalID,
		Account:          r.Account.toInput(),
	}
}

// TeacherPatchRequest is the update payload for teachers.
type TeacherPatchRequest struct {
	Name             *string `json:"name"`
	EmployeeID       *string `json:"employee_id"`
	Email            *string `json:"email" binding:"omitempty,email"`
	Department       *string `json:"department"`
	OwnerPrincipalID *string `json:"owner_principal_id"`
}

func (r TeacherPatchRequest) toPatch() domain.TeacherPatch {
	return domain.TeacherPatch(r)
}

// TeacherResponse is the public shape of a teacher record.
type TeacherResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	EmployeeID       string    `json:"employee_id"`
	Email            string    `json:"email"`
	Department       *string   `json:"department,omitempty"`
	OwnerPrincipalID *string   `json:"owner_principal_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newTeacherResponse(t domain.Teacher) TeacherResponse {
	return TeacherResponse(t)
}

// CourseRequest is the create payload for courses.
type CourseRequest struct {
	Name   string `json:"name" binding:"required"`
	Code   string `json:"code" binding:"required"`
	Credit int    `json:"credit" binding:"gte=0"`
}

// CoursePatchRequest is the update payload for courses.
type CoursePatchRequest struct {
	Name   *string `json:"name"`
	Code   *string `json:"code"`
	Credit *int    `json:"credit" binding:"omitempty,gte=0"`
}

// CourseResponse is the public shape of a course.
type CourseResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Credit    int       `json:"credit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DepartmentRequest is the create payload for departments.
type DepartmentRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// DepartmentPatchRequest is the update payload for departments.
type DepartmentPatchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// DepartmentResponse is the public shape of a department.
type DepartmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileResponse is the signed-in principal and the record it owns.
type ProfileResponse struct {
	Principal PrincipalSummary `json:"principal"`
	Student   *StudentResponse `json:"student,omitempty"`
	Teacher   *TeacherResponse `json:"teacher,omitempty"`
}

func newProfileResponse(p usecase.Profile) ProfileResponse {
	resp := ProfileResponse{Principal: newPrincipalSummary(p.Principal)}
	if p.Student != nil {
		s := newStudentResponse(*p.Student)
		resp.Student = &s
	}
	if p.Teacher != nil {
		t := newTeacherResponse(*p.Teacher)
		resp.Teacher = &t
	}
	return resp
}

// ProfilePatchRequest is the self-service payload. Fields that do not apply
// to the caller's role are ignored.
type ProfilePatchRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Course      *string `json:"course"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	Department  *string `json:"department"`
}

func (r ProfilePatchRequest) toPatch() usecase.ProfilePatch {
	return usecase.ProfilePatch{
		Student: domain.StudentPatch{
			Name:        r.Name,
			Email:       r.Email,
			Course:      r.Course,
			PhoneNumber: r.PhoneNumber,
			Address:     r.Address,
		},
		Teacher: domain.TeacherPatch{
			Name:       r.Name,
			Email:      r.Email,
			Department: r.Department,
		},
	}
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}
