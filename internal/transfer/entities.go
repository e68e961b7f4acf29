package transfer

import (
	"io"
	"strings"

	"campus-portal/internal/domain"
	"campus-portal/internal/validation"
)

var studentFields = []Field[domain.StudentInput]{
	{Header: "Student No", Required: true, Set: func(in *domain.StudentInput, v string) error {
		in.StudentNo = strings.ToUpper(v)
		return nil
	}},
	{Header: "First Name", Required: true, Set: func(in *domain.StudentInput, v string) error { in.FirstName = v; return nil }},
	{Header: "Last Name", Required: true, Set: func(in *domain.StudentInput, v string) error { in.LastName = v; return nil }},
	{Header: "Email", Required: true, Set: func(in *domain.StudentInput, v string) error { in.Email = strings.ToLower(v); return nil }},
	{Header: "Phone", Set: func(in *domain.StudentInput, v string) error { in.Phone = v; return nil }},
	{Header: "Department ID", Required: true, Set: func(in *domain.StudentInput, v string) (err error) {
		in.DepartmentID, err = parseInt64(v)
		return err
	}},
	{Header: "Enrollment Year", Required: true, Set: func(in *domain.StudentInput, v string) error {
		n, err := parseInt64(v)
		in.EnrollmentYear = int(n)
		return err
	}},
}

var studentColumns = []Column[domain.Student]{
	{Header: "ID", Value: func(s domain.Student) interface{} { return s.ID }},
	{Header: "Student No", Value: func(s domain.Student) interface{} { return s.StudentNo }},
	{Header: "First Name", Value: func(s domain.Student) interface{} { return s.FirstName }},
	{Header: "Last Name", Value: func(s domain.Student) interface{} { return s.LastName }},
	{Header: "Email", Value: func(s domain.Student) interface{} { return s.Email }},
	{Header: "Phone", Value: func(s domain.Student) interface{} { return s.Phone }},
	{Header: "Department ID", Value: func(s domain.Student) interface{} { return s.DepartmentID }},
	{Header: "Enrollment Year", Value: func(s domain.Student) interface{} { return s.EnrollmentYear }},
}

var professorFields = []Field[domain.ProfessorInput]{
	{Header: "First Name", Required: true, Set: func(in *domain.ProfessorInput, v string) error { in.FirstName = v; return nil }},
	{Header: "Last Name", Required: true, Set: func(in *domain.ProfessorInput, v string) error { in.LastName = v; return nil }},
	{Header: "Email", Required: true, Set: func(in *domain.ProfessorInput, v string) error { in.Email = strings.ToLower(v); return nil }},
	{Header: "Title", Set: func(in *domain.ProfessorInput, v string) error { in.Title = v; return nil }},
	{Header: "Department ID", Required: true, Set: func(in *domain.ProfessorInput, v string) (err error) {
		in.DepartmentID, err = parseInt64(v)
		return err
	}},
}

var professorColumns = []Column[domain.Professor]{
	{Header: "ID", Value: func(p domain.Professor) interface{} { return p.ID }},
	{Header: "First Name", Value: func(p domain.Professor) interface{} { return p.FirstName }},
	{Header: "Last Name", Value: func(p domain.Professor) interface{} { return p.LastName }},
	{Header: "Email", Value: func(p domain.Professor) interface{} { return p.Email }},
	{Header: "Title", Value: func(p domain.Professor) interface{} { return p.Title }},
	{Header: "Department ID", Value: func(p domain.Professor) interface{} { return p.DepartmentID }},
}

var courseFields = []Field[domain.CourseInput]{
	{Header: "Code", Required: true, Set: func(in *domain.CourseInput, v string) error { in.Code = strings.ToUpper(v); return nil }},
	{Header: "Name", Required: true, Set: func(in *domain.CourseInput, v string) error { in.Name = v; return nil }},
	{Header: "Credits", Required: true, Set: func(in *domain.CourseInput, v string) error {
		n, err := parseInt64(v)
		in.Credits = int(n)
		return err
	}},
	{Header: "Department ID", Required: true, Set: func(in *domain.CourseInput, v string) (err error) {
		in.DepartmentID, err = parseInt64(v)
		return err
	}},
	{Header: "Professor ID", Set: func(in *domain.CourseInput, v string) (err error) {
		in.ProfessorID, err = parseInt64(v)
		return err
	}},
	{Header: "Semester ID", Set: func(in *domain.CourseInput, v string) (err error) {
		in.SemesterID, err = parseInt64(v)
		return err
	}},
	{Header: "Description", Set: func(in *domain.CourseInput, v string) error { in.Description = v; return nil }},
}

var courseColumns = []Column[domain.Course]{
	{Header: "ID", Value: func(c domain.Course) interface{} { return c.ID }},
	{Header: "Code", Value: func(c domain.Course) interface{} { return c.Code }},
	{Header: "Name", Value: func(c domain.Course) interface{} { return c.Name }},
	{Header: "Credits", Value: func(c domain.Course) interface{} { return c.Credits }},
	{Header: "Department ID", Value: func(c domain.Course) interface{} { return c.DepartmentID }},
	{Header: "Professor ID", Value: func(c domain.Course) interface{} { return c.ProfessorID }},
	{Header: "Semester ID", Value: func(c domain.Course) interface{} { return c.SemesterID }},
	{Header: "Description", Value: func(c domain.Course) interface{} { return c.Description }},
}

func ImportStudents(r io.Reader) (*ImportResult[domain.StudentInput], error) {
	return Import(r, studentFields, validation.Default())
}

func ImportProfessors(r io.Reader) (*ImportResult[domain.ProfessorInput], error) {
	return Import(r, professorFields, validation.Default())
}

func ImportCourses(r io.Reader) (*ImportResult[domain.CourseInput], error) {
	return Import(r, courseFields, validation.Default())
}

func ExportStudents(w io.Writer, items []domain.Student) error {
	return Export(w, "Students", studentColumns, items)
}

func ExportProfessors(w io.Writer, items []domain.Professor) error {
	return Export(w, "Professors", professorColumns, items)
}

func ExportCourses(w io.Writer, items []domain.Course) error {
	return Export(w, "Courses", courseColumns, items)
}
