package service

import (
	"campus-portal/internal/cache"
	"campus-portal/internal/domain"
	"campus-portal/internal/resource"
	"campus-portal/internal/table"
)

// Catalogs groups the CRUD services of every entity.
type Catalogs struct {
	Students      *Catalog[domain.Student, domain.StudentInput]
	Professors    *Catalog[domain.Professor, domain.ProfessorInput]
	Departments   *Catalog[domain.Department, domain.DepartmentInput]
	Courses       *Catalog[domain.Course, domain.CourseInput]
	Exams         *Catalog[domain.Exam, domain.ExamInput]
	ExamTypes     *Catalog[domain.ExamType, domain.ExamTypeInput]
	QuestionTypes *Catalog[domain.QuestionType, domain.QuestionTypeInput]
	Semesters     *Catalog[domain.Semester, domain.SemesterInput]
	Categories    *Catalog[domain.Category, domain.CategoryInput]
}

func NewCatalogs(b resource.Backend, queries *cache.QueryCache, audit AuditService) *Catalogs {
	return &Catalogs{
		Students: NewCatalog[domain.Student, domain.StudentInput](resource.NewStudents(b), queries, audit, table.Columns[domain.Student]{
			"id":              func(s domain.Student) interface{} { return s.ID },
			"student_no":      func(s domain.Student) interface{} { return s.StudentNo },
			"first_name":      func(s domain.Student) interface{} { return s.FirstName },
			"last_name":       func(s domain.Student) interface{} { return s.LastName },
			"email":           func(s domain.Student) interface{} { return s.Email },
			"department_id":   func(s domain.Student) interface{} { return s.DepartmentID },
			"enrollment_year": func(s domain.Student) interface{} { return s.EnrollmentYear },
		}, func(s domain.Student) int64 { return s.ID }),

		Professors: NewCatalog[domain.Professor, domain.ProfessorInput](resource.NewProfessors(b), queries, audit, table.Columns[domain.Professor]{
			"id":            func(p domain.Professor) interface{} { return p.ID },
			"first_name":    func(p domain.Professor) interface{} { return p.FirstName },
			"last_name":     func(p domain.Professor) interface{} { return p.LastName },
			"email":         func(p domain.Professor) interface{} { return p.Email },
			"title":         func(p domain.Professor) interface{} { return p.Title },
			"department_id": func(p domain.Professor) interface{} { return p.DepartmentID },
		}, func(p domain.Professor) int64 { return p.ID }),

		Departments: NewCatalog[domain.Department, domain.DepartmentInput](resource.NewDepartments(b), queries, audit, table.Columns[domain.Department]{
			"id":   func(d domain.Department) interface{} { return d.ID },
			"code": func(d domain.Department) interface{} { return d.Code },
			"name": func(d domain.Department) interface{} { return d.Name },
		}, func(d domain.Department) int64 { return d.ID }),

		// Course changes show up in professors' course lists.
		Courses: NewCatalog[domain.Course, domain.CourseInput](resource.NewCourses(b), queries, audit, table.Columns[domain.Course]{
			"id":            func(c domain.Course) interface{} { return c.ID },
			"code":          func(c domain.Course) interface{} { return c.Code },
			"name":          func(c domain.Course) interface{} { return c.Name },
			"credits":       func(c domain.Course) interface{} { return c.Credits },
			"department_id": func(c domain.Course) interface{} { return c.DepartmentID },
			"professor_id":  func(c domain.Course) interface{} { return c.ProfessorID },
			"semester_id":   func(c domain.Course) interface{} { return c.SemesterID },
		}, func(c domain.Course) int64 { return c.ID }, resource.Professors),

		Exams: NewCatalog[domain.Exam, domain.ExamInput](resource.NewExams(b), queries, audit, table.Columns[domain.Exam]{
			"id":               func(e domain.Exam) interface{} { return e.ID },
			"title":            func(e domain.Exam) interface{} { return e.Title },
			"course_id":        func(e domain.Exam) interface{} { return e.CourseID },
			"scheduled_at":     func(e domain.Exam) interface{} { return e.ScheduledAt },
			"duration_minutes": func(e domain.Exam) interface{} { return e.DurationMinutes },
			"total_marks":      func(e domain.Exam) interface{} { return e.TotalMarks },
			"status":           func(e domain.Exam) interface{} { return e.Status },
		}, func(e domain.Exam) int64 { return e.ID }),

		ExamTypes: NewCatalog[domain.ExamType, domain.ExamTypeInput](resource.NewExamTypes(b), queries, audit, table.Columns[domain.ExamType]{
			"id":   func(t domain.ExamType) interface{} { return t.ID },
			"name": func(t domain.ExamType) interface{} { return t.Name },
		}, func(t domain.ExamType) int64 { return t.ID }),

		QuestionTypes: NewCatalog[domain.QuestionType, domain.QuestionTypeInput](resource.NewQuestionTypes(b), queries, audit, table.Columns[domain.QuestionType]{
			"id":   func(t domain.QuestionType) interface{} { return t.ID },
			"name": func(t domain.QuestionType) interface{} { return t.Name },
		}, func(t domain.QuestionType) int64 { return t.ID }),

		Semesters: NewCatalog[domain.Semester, domain.SemesterInput](resource.NewSemesters(b), queries, audit, table.Columns[domain.Semester]{
			"id":         func(s domain.Semester) interface{} { return s.ID },
			"name":       func(s domain.Semester) interface{} { return s.Name },
			"year":       func(s domain.Semester) interface{} { return s.Year },
			"term":       func(s domain.Semester) interface{} { return s.Term },
			"start_date": func(s domain.Semester) interface{} { return s.StartDate },
			"end_date":   func(s domain.Semester) interface{} { return s.EndDate },
			"active":     func(s domain.Semester) interface{} { return s.Active },
		}, func(s domain.Semester) int64 { return s.ID }),

		Categories: NewCatalog[domain.Category, domain.CategoryInput](resource.NewCategories(b), queries, audit, table.Columns[domain.Category]{
			"id":        func(c domain.Category) interface{} { return c.ID },
			"name":      func(c domain.Category) interface{} { return c.Name },
			"parent_id": func(c domain.Category) interface{} { return c.ParentID },
		}, func(c domain.Category) int64 { return c.ID }),
	}
}
