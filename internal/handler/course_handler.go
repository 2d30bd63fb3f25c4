package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedulease-api/internal/dto"
	"github.com/noah-isme/schedulease-api/internal/middleware"
	"github.com/noah-isme/schedulease-api/internal/models"
	appErrors "github.com/noah-isme/schedulease-api/pkg/errors"
	"github.com/noah-isme/schedulease-api/pkg/response"
)

type courseCatalog interface {
	ListCourses(ctx context.Context, query dto.CourseListQuery) ([]models.Course, bool, error)
	CourseSections(ctx context.Context, rawID string) (*dto.CourseSectionsResponse, error)
}

// CourseHandler serves the course catalog.
type CourseHandler struct {
	catalog courseCatalog
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(catalog courseCatalog) *CourseHandler {
	return &CourseHandler{catalog: catalog}
}

// List godoc
// @Summary List catalog courses
// @Tags Courses
// @Produce json
// @Param subject query string false "Subject code, e.g. CS"
// @Param q query string false "Free-text search on code or title"
// @Success 200 {object} response.Envelope{data=[]models.Course}
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var query dto.CourseListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	courses, cacheHit, err := h.catalog.ListCourses(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if courses == nil {
		courses = []models.Course{}
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "total", len(courses))
	response.JSON(c, http.StatusOK, courses, middleware.ExtractMeta(c))
}

// Sections godoc
// @Summary Normalised sections of one course
// @Tags Courses
// @Produce json
// @Param id path string true "Course identifier, e.g. CS100"
// @Success 200 {object} response.Envelope{data=dto.CourseSectionsResponse}
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/sections [get]
func (h *CourseHandler) Sections(c *gin.Context) {
	result, err := h.catalog.CourseSections(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, middleware.ExtractMeta(c))
}
