// Package resource holds one thin router per backend REST resource.
package resource

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"campus-portal/internal/apiclient"
	"campus-portal/internal/domain"
)

// Backend is the subset of *apiclient.Client the routers need.
type Backend interface {
	Get(ctx context.Context, path string, out interface{}, opts ...apiclient.RequestOption) error
	Post(ctx context.Context, path string, body, out interface{}, opts ...apiclient.RequestOption) error
	Put(ctx context.Context, path string, body, out interface{}, opts ...apiclient.RequestOption) error
	Delete(ctx context.Context, path string, opts ...apiclient.RequestOption) error
	PostMultipart(ctx context.Context, path string, fields map[string]string, file apiclient.Part, out interface{}, opts ...apiclient.RequestOption) error
}

var _ Backend = (*apiclient.Client)(nil)

// Resource names, also used as query-cache and audit resource identifiers.
const (
	Students      = "students"
	Professors    = "professors"
	Departments   = "departments"
	Courses       = "courses"
	Exams         = "exams"
	ExamTypes     = "exam-types"
	QuestionTypes = "question-types"
	Semesters     = "semesters"
	Categories    = "categories"
)

// Names lists every CRUD resource.
var Names = []string{Students, Professors, Departments, Courses, Exams, ExamTypes, QuestionTypes, Semesters, Categories}

// Resource is a CRUD router over /<name> and /<name>/{id}. T is the entity
// returned by the backend; In is the create/update body.
type Resource[T any, In any] struct {
	backend Backend
	name    string
}

func New[T any, In any](backend Backend, name string) *Resource[T, In] {
	return &Resource[T, In]{backend: backend, name: name}
}

func (r *Resource[T, In]) Name() string { return r.name }

func (r *Resource[T, In]) itemPath(id int64) string {
	return r.name + "/" + strconv.FormatInt(id, 10)
}

func (r *Resource[T, In]) List(ctx context.Context, query url.Values, opts ...apiclient.RequestOption) ([]T, error) {
	if len(query) > 0 {
		opts = append(opts, apiclient.WithQuery(query))
	}
	var out []T
	if err := r.backend.Get(ctx, r.name, &out, opts...); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (r *Resource[T, In]) Get(ctx context.Context, id int64, opts ...apiclient.RequestOption) (*T, error) {
	if id <= 0 {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("invalid %s id: %d", r.name, id))
	}
	var out T
	if err := r.backend.Get(ctx, r.itemPath(id), &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T, In]) Create(ctx context.Context, in In, opts ...apiclient.RequestOption) (*T, error) {
	var out T
	if err := r.backend.Post(ctx, r.name, in, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T, In]) Update(ctx context.Context, id int64, in In, opts ...apiclient.RequestOption) (*T, error) {
	if id <= 0 {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("invalid %s id: %d", r.name, id))
	}
	var out T
	if err := r.backend.Put(ctx, r.itemPath(id), in, &out, opts...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Resource[T, In]) Delete(ctx context.Context, id int64, opts ...apiclient.RequestOption) error {
	if id <= 0 {
		return domain.NewInvalidInputError(fmt.Sprintf("invalid %s id: %d", r.name, id))
	}
	return r.backend.Delete(ctx, r.itemPath(id), opts...)
}

func NewStudents(b Backend) *Resource[domain.Student, domain.StudentInput] {
	return New[domain.Student, domain.StudentInput](b, Students)
}

func NewProfessors(b Backend) *Resource[domain.Professor, domain.ProfessorInput] {
	return New[domain.Professor, domain.ProfessorInput](b, Professors)
}

func NewDepartments(b Backend) *Resource[domain.Department, domain.DepartmentInput] {
	return New[domain.Department, domain.DepartmentInput](b, Departments)
}

func NewCourses(b Backend) *Resource[domain.Course, domain.CourseInput] {
	return New[domain.Course, domain.CourseInput](b, Courses)
}

func NewExams(b Backend) *Resource[domain.Exam, domain.ExamInput] {
	return New[domain.Exam, domain.ExamInput](b, Exams)
}

func NewExamTypes(b Backend) *Resource[domain.ExamType, domain.ExamTypeInput] {
	return New[domain.ExamType, domain.ExamTypeInput](b, ExamTypes)
}

func NewQuestionTypes(b Backend) *Resource[domain.QuestionType, domain.QuestionTypeInput] {
	return New[domain.QuestionType, domain.QuestionTypeInput](b, QuestionTypes)
}

func NewSemesters(b Backend) *Resource[domain.Semester, domain.SemesterInput] {
	return New[domain.Semester, domain.SemesterInput](b, Semesters)
}

func NewCategories(b Backend) *Resource[domain.Category, domain.CategoryInput] {
	return New[domain.Category, domain.CategoryInput](b, Categories)
}
