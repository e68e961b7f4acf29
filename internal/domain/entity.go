package domain

import "time"

// The types below mirror the backend's resources. Struct tags are the schema:
// `json` for the wire format and `validate` for go-playground/validator rules.

// Student is an enrolled student.
type Student struct {
	ID             int64  `json:"id" validate:"required,gt=0"`
	StudentNo      string `json:"student_no" validate:"required,student_no"`
	FirstName      string `json:"first_name" validate:"required,max=100"`
	LastName       string `json:"last_name" validate:"required,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone,omitempty" validate:"omitempty,max=30"`
	DepartmentID   int64  `json:"department_id" validate:"required,gt=0"`
	EnrollmentYear int    `json:"enrollment_year" validate:"required,gte=1950,lte=2100"`
}

// StudentInput is the body of a create or update request.
type StudentInput struct {
	StudentNo      string `json:"student_no" validate:"required,student_no"`
	FirstName      string `json:"first_name" validate:"required,person_name,max=100"`
	LastName       string `json:"last_name" validate:"required,person_name,max=100"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone,omitempty" validate:"omitempty,max=30"`
	DepartmentID   int64  `json:"department_id" validate:"required,gt=0"`
	EnrollmentYear int    `json:"enrollment_year" validate:"required,gte=1950,lte=2100"`
}

// Professor is a member of teaching staff.
type Professor struct {
	ID           int64  `json:"id" validate:"required,gt=0"`
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Title        string `json:"title,omitempty" validate:"omitempty,max=50"`
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
}

type ProfessorInput struct {
	FirstName    string `json:"first_name" validate:"required,person_name,max=100"`
	LastName     string `json:"last_name" validate:"required,person_name,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Title        string `json:"title,omitempty" validate:"omitempty,max=50"`
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
}

type Department struct {
	ID          int64  `json:"id" validate:"required,gt=0"`
	Code        string `json:"code" validate:"required,max=20"`
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description,omitempty"`
}

type DepartmentInput struct {
	Code        string `json:"code" validate:"required,alphanum,max=20"`
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// Course is a course offering owned by a department and taught by a professor.
type Course struct {
	ID           int64  `json:"id" validate:"required,gt=0"`
	Code         string `json:"code" validate:"required,max=20"`
	Name         string `json:"name" validate:"required,max=150"`
	Credits      int    `json:"credits" validate:"gte=0,lte=30"`
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
	ProfessorID  int64  `json:"professor_id,omitempty" validate:"gte=0"`
	SemesterID   int64  `json:"semester_id,omitempty" validate:"gte=0"`
	Description  string `json:"description,omitempty"`
}

type CourseInput struct {
	Code         string `json:"code" validate:"required,alphanum,max=20"`
	Name         string `json:"name" validate:"required,max=150"`
	Credits      int    `json:"credits" validate:"required,gte=1,lte=30"`
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
	ProfessorID  int64  `json:"professor_id,omitempty" validate:"omitempty,gt=0"`
	SemesterID   int64  `json:"semester_id,omitempty" validate:"omitempty,gt=0"`
	Description  string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// Semester terms accepted by the semester_term rule.
const (
	TermFall   = "fall"
	TermSpring = "spring"
	TermSummer = "summer"
	TermWinter = "winter"
)

type Semester struct {
	ID        int64     `json:"id" validate:"required,gt=0"`
	Name      string    `json:"name" validate:"required,max=100"`
	Year      int       `json:"year" validate:"required,gte=1950,lte=2100"`
	Term      string    `json:"term" validate:"required,semester_term"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Active    bool      `json:"active"`
}

type SemesterInput struct {
	Name      string    `json:"name" validate:"required,max=100"`
	Year      int       `json:"year" validate:"required,gte=1950,lte=2100"`
	Term      string    `json:"term" validate:"required,semester_term"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	Active    bool      `json:"active"`
}

type ExamType struct {
	ID          int64  `json:"id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty"`
}

type ExamTypeInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type QuestionType struct {
	ID          int64  `json:"id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty"`
}

type QuestionTypeInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// Category is a business category used to group courses and exams.
type Category struct {
	ID          int64  `json:"id" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required,max=100"`
	ParentID    int64  `json:"parent_id,omitempty" validate:"gte=0"`
	Description string `json:"description,omitempty"`
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	ParentID    int64  `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
	Description string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// Exam statuses in workflow order.
const (
	ExamStatusDraft     = "draft"
	ExamStatusScheduled = "scheduled"
	ExamStatusGrading   = "grading"
	ExamStatusGraded    = "graded"
	ExamStatusPublished = "published"
)

type Exam struct {
	ID              int64     `json:"id" validate:"required,gt=0"`
	Title           string    `json:"title" validate:"required,max=200"`
	CourseID        int64     `json:"course_id" validate:"required,gt=0"`
	ExamTypeID      int64     `json:"exam_type_id" validate:"required,gt=0"`
	SemesterID      int64     `json:"semester_id,omitempty" validate:"gte=0"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes" validate:"gte=0,lte=600"`
	TotalMarks      float64   `json:"total_marks" validate:"gte=0"`
	Status          string    `json:"status" validate:"required,oneof=draft scheduled grading graded published"`
}

type ExamInput struct {
	Title           string    `json:"title" validate:"required,max=200"`
	CourseID        int64     `json:"course_id" validate:"required,gt=0"`
	ExamTypeID      int64     `json:"exam_type_id" validate:"required,gt=0"`
	SemesterID      int64     `json:"semester_id,omitempty" validate:"omitempty,gt=0"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gte=1,lte=600"`
	TotalMarks      float64   `json:"total_marks" validate:"required,gt=0"`
	Status          string    `json:"status,omitempty" validate:"omitempty,oneof=draft scheduled"`
}

// ExamResult is one student's graded result for an exam.
type ExamResult struct {
	ExamID      int64      `json:"exam_id" validate:"required,gt=0"`
	StudentID   int64      `json:"student_id" validate:"required,gt=0"`
	StudentName string     `json:"student_name,omitempty"`
	Score       float64    `json:"score" validate:"gte=0"`
	MaxScore    float64    `json:"max_score" validate:"gte=0"`
	Grade       string     `json:"grade,omitempty" validate:"omitempty,max=5"`
	Feedback    string     `json:"feedback,omitempty"`
	Published   bool       `json:"published"`
	GradedAt    *time.Time `json:"graded_at,omitempty"`
}

// GradeOverride is a manual correction of a result by a professor.
type GradeOverride struct {
	Score    float64 `json:"score" validate:"gte=0"`
	Grade    string  `json:"grade,omitempty" validate:"omitempty,max=5"`
	Feedback string  `json:"feedback,omitempty" validate:"omitempty,max=2000"`
}

// GradingJob is the backend's acknowledgement of a grading request.
type GradingJob struct {
	ExamID int64  `json:"exam_id" validate:"required,gt=0"`
	Status string `json:"status" validate:"required"`
	Queued int    `json:"queued" validate:"gte=0"`
}
