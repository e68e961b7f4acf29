package resource

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"campus-portal/internal/apiclient"
	"campus-portal/internal/domain"
	"campus-portal/internal/upload"
)

// AuthRouter wraps /auth.
type AuthRouter struct {
	backend Backend
}

func NewAuthRouter(b Backend) *AuthRouter {
	return &AuthRouter{backend: b}
}

// Login exchanges credentials for a backend token. Failures are not broadcast
// as notifications; the login form reports them itself.
func (r *AuthRouter) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	var out domain.LoginResult
	if err := r.backend.Post(ctx, "auth/login", creds, &out, apiclient.Silent()); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExamRouter adds the grading workflow endpoints on top of exam CRUD.
type ExamRouter struct {
	*Resource[domain.Exam, domain.ExamInput]
}

func NewExamRouter(b Backend) *ExamRouter {
	return &ExamRouter{Resource: NewExams(b)}
}

func examPath(examID int64, rest ...string) string {
	p := Exams + "/" + strconv.FormatInt(examID, 10)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// UploadChunk posts one chunk of an answers file.
func (r *ExamRouter) UploadChunk(ctx context.Context, examID int64, c upload.Chunk) error {
	fields := map[string]string{
		"chunkIndex":  strconv.Itoa(c.Index),
		"totalChunks": strconv.Itoa(c.Total),
		"fileName":    c.FileName,
		"uploadId":    c.UploadID,
	}
	part := apiclient.Part{Field: "file", FileName: c.FileName, Content: bytes.NewReader(c.Data)}
	return r.backend.PostMultipart(ctx, examPath(examID, "answers", "chunk"), fields, part, nil)
}

// AnswerTarget returns an upload.Target that sends chunks for examID.
func (r *ExamRouter) AnswerTarget(examID int64) upload.Target {
	return upload.TargetFunc(func(ctx context.Context, c upload.Chunk) error {
		return r.UploadChunk(ctx, examID, c)
	})
}

func (r *ExamRouter) Grade(ctx context.Context, examID int64) (*domain.GradingJob, error) {
	var out domain.GradingJob
	if err := r.backend.Post(ctx, examPath(examID, "grade"), struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ExamRouter) Results(ctx context.Context, examID int64, opts ...apiclient.RequestOption) ([]domain.ExamResult, error) {
	var out []domain.ExamResult
	if err := r.backend.Get(ctx, examPath(examID, "results"), &out, opts...); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.ExamResult{}
	}
	return out, nil
}

func (r *ExamRouter) OverrideResult(ctx context.Context, examID, studentID int64, o domain.GradeOverride) (*domain.ExamResult, error) {
	if studentID <= 0 {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("invalid student id: %d", studentID))
	}
	var out domain.ExamResult
	if err := r.backend.Put(ctx, examPath(examID, "results", strconv.FormatInt(studentID, 10)), o, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ExamRouter) Publish(ctx context.Context, examID int64) error {
	return r.backend.Post(ctx, examPath(examID, "publish"), struct{}{}, nil)
}

// StudentRouter adds per-student result lookups.
type StudentRouter struct {
	*Resource[domain.Student, domain.StudentInput]
}

func NewStudentRouter(b Backend) *StudentRouter {
	return &StudentRouter{Resource: NewStudents(b)}
}

func (r *StudentRouter) Results(ctx context.Context, studentID int64, opts ...apiclient.RequestOption) ([]domain.ExamResult, error) {
	var out []domain.ExamResult
	if err := r.backend.Get(ctx, r.itemPath(studentID)+"/results", &out, opts...); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.ExamResult{}
	}
	return out, nil
}

// ProfessorRouter adds the courses a professor teaches.
type ProfessorRouter struct {
	*Resource[domain.Professor, domain.ProfessorInput]
}

func NewProfessorRouter(b Backend) *ProfessorRouter {
	return &ProfessorRouter{Resource: NewProfessors(b)}
}

func (r *ProfessorRouter) Courses(ctx context.Context, professorID int64, opts ...apiclient.RequestOption) ([]domain.Course, error) {
	var out []domain.Course
	if err := r.backend.Get(ctx, r.itemPath(professorID)+"/courses", &out, opts...); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Course{}
	}
	return out, nil
}
