package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/arklim/campus-records/internal/core/domain"
	"github.com/arklim/campus-records/internal/usecase"
)

// CatalogueHandler serves courses and departments.
type CatalogueHandler struct {
	courses     *usecase.CourseService
	departments *usecase.DepartmentService
}

// NewCatalogueHandler constructs CatalogueHandler.
func NewCatalogueHandler(courses *usecase.CourseService, departments *usecase.DepartmentService) *CatalogueHandler {
	return &CatalogueHandler{courses: courses, departments: departments}
}

// RegisterRoutes binds the catalogue routes.
func (h *CatalogueHandler) RegisterRoutes(r *gin.RouterGroup) {
	courses := r.Group("/" + domain.KindCourse.Segment())
	courses.GET("", h.listCourses)
	courses.POST("", h.createCourse)
	courses.GET("/:id", h.getCourse)
	courses.PATCH("/:id", h.updateCourse)
	courses.PUT("/:id", h.updateCourse)
	courses.DELETE("/:id", h.deleteCourse)

	departments := r.Group("/" + domain.KindDepartment.Segment())
	departments.GET("", h.listDepartments)
	departments.POST("", h.createDepartment)
	departments.GET("/:id", h.getDepartment)
	departments.PATCH("/:id", h.updateDepartment)
	departments.PUT("/:id", h.updateDepartment)
	departments.DELETE("/:id", h.deleteDepartment)
}

func newCourseResponse(course domain.Course) CourseResponse {
	return CourseResponse(course)
}

func newDepartmentResponse(dept domain.Department) DepartmentResponse {
	return DepartmentResponse(dept)
}

func (h *CatalogueHandler) listCourses(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	courses, err := h.courses.List(c.Request.Context(), actor)
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(courses, func(course domain.Course, _ int) CourseResponse {
		return newCourseResponse(course)
	}))
}

func (h *CatalogueHandler) createCourse(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, "course", err)
		return
	}
	course, err := h.courses.Create(c.Request.Context(), actor, usecase.CourseInput(req))
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCourseResponse(*course))
}

func (h *CatalogueHandler) getCourse(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	course, err := h.courses.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCourseResponse(*course))
}

func (h *CatalogueHandler) updateCourse(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req CoursePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, "course", err)
		return
	}
	course, err := h.courses.Update(c.Request.Context(), actor, c.Param("id"), domain.CoursePatch(req))
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCourseResponse(*course))
}

func (h *CatalogueHandler) deleteCourse(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.courses.Delete(c.Request.Context(), actor, c.Param("id"), usecase.DeleteOptions{}); err != nil {
		respondRecordError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogueHandler) listDepartments(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	departments, err := h.departments.List(c.Request.Context(), actor)
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(departments, func(dept domain.Department, _ int) DepartmentResponse {
		return newDepartmentResponse(dept)
	}))
}

func (h *CatalogueHandler) createDepartment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, "department", err)
		return
	}
	dept, err := h.departments.Create(c.Request.Context(), actor, usecase.DepartmentInput(req))
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newDepartmentResponse(*dept))
}

func (h *CatalogueHandler) getDepartment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	dept, err := h.departments.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDepartmentResponse(*dept))
}

func (h *CatalogueHandler) updateDepartment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req DepartmentPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, "department", err)
		return
	}
	dept, err := h.departments.Update(c.Request.Context(), actor, c.Param("id"), domain.DepartmentPatch(req))
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDepartmentResponse(*dept))
}

func (h *CatalogueHandler) deleteDepartment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.departments.Delete(c.Request.Context(), actor, c.Param("id"), usecase.DeleteOptions{}); err != nil {
		respondRecordError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
