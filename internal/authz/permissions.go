package authz

import (
	"net/http"

	"campus-portal/internal/domain"
)

// Rule grants access to every path under Prefix. A rule with a Pattern instead
// matches only paths with the same segments, where "*" stands for any one
// segment. An empty Methods list allows all methods.
type Rule struct {
	Prefix  string
	Pattern string
	Methods []string
}

// NavItem is one sidebar entry.
type NavItem struct {
	Title string `json:"title"`
	Path  string `json:"path"`
	Icon  string `json:"icon"`
}

var readOnly = []string{http.MethodGet, http.MethodHead}

// PublicPrefixes never require a role cookie.
var PublicPrefixes = []string{
	"/api/auth/login",
	"/health",
	"/swagger",
}

// commonRules apply to every signed-in role.
var commonRules = []Rule{
	{Prefix: "/api/auth/logout"},
	{Prefix: "/api/session"},
	{Prefix: "/api/navigation"},
	{Prefix: "/api/notifications"},
	{Prefix: "/api/dashboard"},
}

var permissions = map[domain.Role][]Rule{
	domain.RoleAdmin: {
		{Prefix: "/api"},
	},
	domain.RoleProfessor: {
		{Prefix: "/api/exams"},
		{Prefix: "/api/uploads"},
		{Prefix: "/api/courses", Methods: readOnly},
		{Prefix: "/api/students", Methods: readOnly},
		{Prefix: "/api/professors", Methods: readOnly},
		{Prefix: "/api/departments", Methods: readOnly},
		{Prefix: "/api/semesters", Methods: readOnly},
		{Prefix: "/api/exam-types", Methods: readOnly},
		{Prefix: "/api/question-types", Methods: readOnly},
		{Prefix: "/api/categories", Methods: readOnly},
	},
	domain.RoleStudent: {
		{Prefix: "/api/courses", Methods: readOnly},
		{Prefix: "/api/exams", Methods: readOnly},
		{Prefix: "/api/semesters", Methods: readOnly},
		{Pattern: "/api/students/*/results", Methods: readOnly},
	},
}

var sidebars = map[domain.Role][]NavItem{
	domain.RoleAdmin: {
		{Title: "Dashboard", Path: "/admin", Icon: "dashboard"},
		{Title: "Students", Path: "/admin/students", Icon: "users"},
		{Title: "Professors", Path: "/admin/professors", Icon: "user-tie"},
		{Title: "Departments", Path: "/admin/departments", Icon: "building"},
		{Title: "Courses", Path: "/admin/courses", Icon: "book"},
		{Title: "Exams", Path: "/admin/exams", Icon: "file-text"},
		{Title: "Exam Types", Path: "/admin/exam-types", Icon: "tags"},
		{Title: "Question Types", Path: "/admin/question-types", Icon: "list"},
		{Title: "Semesters", Path: "/admin/semesters", Icon: "calendar"},
		{Title: "Categories", Path: "/admin/categories", Icon: "folder"},
		{Title: "Audit Log", Path: "/admin/audit", Icon: "history"},
	},
	domain.RoleProfessor: {
		{Title: "Dashboard", Path: "/professor", Icon: "dashboard"},
		{Title: "My Courses", Path: "/professor/courses", Icon: "book"},
		{Title: "Exams", Path: "/professor/exams", Icon: "file-text"},
		{Title: "Grading", Path: "/professor/grading", Icon: "check-square"},
		{Title: "Students", Path: "/professor/students", Icon: "users"},
	},
	domain.RoleStudent: {
		{Title: "Dashboard", Path: "/student", Icon: "dashboard"},
		{Title: "Courses", Path: "/student/courses", Icon: "book"},
		{Title: "Exams", Path: "/student/exams", Icon: "file-text"},
		{Title: "Results", Path: "/student/results", Icon: "award"},
	},
}

// Sidebar returns the navigation for role, or nil for an unknown role.
func Sidebar(role domain.Role) []NavItem {
	items := sidebars[role]
	if items == nil {
		return nil
	}
	return append([]NavItem(nil), items...)
}
