// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/padhaku/eduverse-analytics/internal/domain/model"
)

// CourseDependencies defines the interface for catalog operations.
type CourseDependencies interface {
	Courses(ctx context.Context) ([]model.CourseRecord, error)
	Course(ctx context.Context, id int64) (model.CourseRecord, error)
	PutCourse(ctx context.Context, course model.CourseRecord) error
	DeleteCourse(ctx context.Context, id int64) error
}

// courseRequest is the payload for POST /courses.
type courseRequest struct {
	ID            int64  `json:"id" validate:"required,gt=0"`
	CID           string `json:"cid" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Level         string `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	TotalChapters int    `json:"total_chapters" validate:"required,gt=0"`
	CourseJSON    string `json:"course_json"`
	OwnerID       string `json:"owner_id"`
}

// courseResponse is the read shape for catalog entries.
type courseResponse struct {
	ID            int64  `json:"id"`
	CID           string `json:"cid"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Category      string `json:"category,omitempty"`
	Level         string `json:"level,omitempty"`
	TotalChapters int    `json:"total_chapters"`
	OwnerID       string `json:"owner_id,omitempty"`
}

// CoursesHandler handles course catalog requests.
type CoursesHandler struct {
	deps CourseDependencies
}

// NewCoursesHandler creates a new courses handler.
func NewCoursesHandler(deps CourseDependencies) *CoursesHandler {
	return &CoursesHandler{deps: deps}
}

// HandleCourses handles GET /courses and POST /courses requests.
func (h *CoursesHandler) HandleCourses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		http.NotFound(w, r)
	}
}

// HandleCourseByID handles GET /courses/{id} and DELETE /courses/{id} requests.
func (h *CoursesHandler) HandleCourseByID(w http.ResponseWriter, r *http.Request) {
	const op = "api.course_by_id"
	raw := strings.TrimPrefix(r.URL.Path, "/courses/")
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, id)
	case http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *CoursesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_courses"
	courses, err := h.deps.Courses(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	out := make([]courseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, courseToResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CoursesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_course"
	var req courseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	course := model.CourseRecord{
		ID:            req.ID,
		CID:           req.CID,
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Level:         req.Level,
		TotalChapters: req.TotalChapters,
		CourseJSON:    req.CourseJSON,
		OwnerID:       req.OwnerID,
	}
	if err := h.deps.PutCourse(r.Context(), course); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, courseToResponse(course))
}

func (h *CoursesHandler) handleGet(w http.ResponseWriter, r *http.Request, id int64) {
	const op = "api.get_course"
	course, err := h.deps.Course(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, courseToResponse(course))
}

func (h *CoursesHandler) handleDelete(w http.ResponseWriter, r *http.Request, id int64) {
	const op = "api.delete_course"
	if err := h.deps.DeleteCourse(r.Context(), id); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func courseToResponse(c model.CourseRecord) courseResponse {
	return courseResponse{
		ID:            c.ID,
		CID:           c.CID,
		Name:          c.Name,
		Description:   c.Description,
		Category:      c.Category,
		Level:         c.Level,
		TotalChapters: c.TotalChapters,
		OwnerID:       c.OwnerID,
	}
}
