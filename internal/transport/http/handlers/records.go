package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/transport/http/middleware"
	"github.com/arklim/campus-records/internal/usecase"
)

// RecordHandler serves the student and teacher collections.
type RecordHandler struct {
	students       *usecase.StudentService
	teachers       *usecase.TeacherService
	cascadeDefault bool
}

// NewRecordHandler constructs RecordHandler. cascadeDefault applies when a
// delete request carries no cascade query parameter.
func NewRecordHandler(students *usecase.StudentService, teachers *usecase.TeacherService, cascadeDefault bool) *RecordHandler {
	return &RecordHandler{students: students, teachers: teachers, cascadeDefault: cascadeDefault}
}

// RegisterRoutes binds the record routes. The group must already require a session.
func (h *RecordHandler) RegisterRoutes(r *gin.RouterGroup) {
	students := r.Group("/" + domain.KindStudent.Segment())
	students.GET("", h.listStudents)
	students.POST("", h.createStudent)
	students.GET("/:id", h.getStudent)
	students.PATCH("/:id", h.updateStudent)
	students.PUT("/:id", h.updateStudent)
	students.DELETE("/:id", h.deleteStudent)

	teachers := r.Group("/" + domain.KindTeacher.Segment())
	teachers.GET("", h.listTeachers)
	teachers.POST("", h.createTeacher)
	teachers.GET("/:id", h.getTeacher)
	teachers.PATCH("/:id", h.updateTeacher)
	teachers.PUT("/:id", h.updateTeacher)
	teachers.DELETE("/:id", h.deleteTeacher)
}

func (h *RecordHandler) listStudents(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	students, err := h.students.List(c.Request.Context(), actor)
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(students, func(s domain.Student, _ int) StudentResponse {
		return newStudentResponse(s)
	}))
}

func (h *RecordHandler) createStudent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, "student", err)
		return
	}
	student, err := h.students.Create(c.Request.Context(), actor, req.toInput())
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newStudentResponse(*student))
}

func (h *RecordHandler) getStudent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStudentResponse(*student))
}

func (h *RecordHandler) updateStudent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req StudentPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, "student", err)
		return
	}
	student, err := h.students.Update(c.Request.Context(), actor, c.Param("id"), req.toPatch())
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStudentResponse(*student))
}

func (h *RecordHandler) deleteStudent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	opts, ok := deleteOptions(c, h.cascadeDefault)
	if !ok {
		return
	}
	if err := h.students.Delete(c.Request.Context(), actor, c.Param("id"), opts); err != nil {
		respondRecordError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecordHandler) listTeachers(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	teachers, err := h.teachers.List(c.Request.Context(), actor)
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(teachers, func(t domain.Teacher, _ int) TeacherResponse {
		return newTeacherResponse(t)
	}))
}

func (h *RecordHandler) createTeacher(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req TeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, "teacher", err)
		return
	}
	teacher, err := h.teachers.Create(c.Request.Context(), actor, req.toInput())
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTeacherResponse(*teacher))
}

func (h *RecordHandler) getTeacher(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	teacher, err := h.teachers.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTeacherResponse(*teacher))
}

func (h *RecordHandler) updateTeacher(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req TeacherPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, "teacher", err)
		return
	}
	teacher, err := h.teachers.Update(c.Request.Context(), actor, c.Param("id"), req.toPatch())
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTeacherResponse(*teacher))
}

func (h *RecordHandler) deleteTeacher(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	opts, ok := deleteOptions(c, h.cascadeDefault)
	if !ok {
		return
	}
	if err := h.teachers.Delete(c.Request.Context(), actor, c.Param("id"), opts); err != nil {
		respondRecordError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// requireActor answers 401 when no session principal is attached.
func requireActor(c *gin.Context) (domain.Principal, bool) {
	actor, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return domain.Principal{}, false
	}
	return actor, true
}

func deleteOptions(c *gin.Context, cascadeDefault bool) (usecase.DeleteOptions, bool) {
	raw, present := c.GetQuery("cascade")
	if !present || raw == "" {
		return usecase.DeleteOptions{CascadeOwner: cascadeDefault}, true
	}
	cascade, err := strconv.ParseBool(raw)
	if err != nil {
		resp := NewErrorResponse(c, "cascade must be true or false")
		resp.Field = "cascade"
		c.JSON(http.StatusBadRequest, resp)
		return usecase.DeleteOptions{}, false
	}
	return usecase.DeleteOptions{CascadeOwner: cascade}, true
}
