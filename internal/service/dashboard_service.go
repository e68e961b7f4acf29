package service

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"time"

	"campus-portal/internal/apiclient"
	"campus-portal/internal/cache"
	"campus-portal/internal/domain"
	"campus-portal/internal/resource"

	"golang.org/x/sync/errgroup"
)

const upcomingExamsLimit = 10

// Dashboard is the landing page content. Only the sections of the caller's
// role are filled.
type Dashboard struct {
	Role   domain.Role    `json:"role"`
	Counts map[string]int `json:"counts,omitempty"`

	Courses          []domain.Course     `json:"courses,omitempty"`
	AwaitingGrading  []domain.Exam       `json:"awaiting_grading,omitempty"`
	UpcomingExams    []domain.Exam       `json:"upcoming_exams,omitempty"`
	PublishedResults []domain.ExamResult `json:"published_results,omitempty"`
}

// ProfessorCourses lists the courses taught by a professor.
type ProfessorCourses interface {
	Courses(ctx context.Context, professorID int64, opts ...apiclient.RequestOption) ([]domain.Course, error)
}

type DashboardService interface {
	Get(ctx context.Context) (*Dashboard, error)
}

type dashboardServiceImpl struct {
	catalogs   *Catalogs
	professors ProfessorCourses
	grading    GradingService
	queries    *cache.QueryCache
	now        func() time.Time
}

func NewDashboardService(catalogs *Catalogs, professors ProfessorCourses, grading GradingService, queries *cache.QueryCache) DashboardService {
	return &dashboardServiceImpl{
		catalogs:   catalogs,
		professors: professors,
		grading:    grading,
		queries:    queries,
		now:        time.Now,
	}
}

func (s *dashboardServiceImpl) Get(ctx context.Context) (*Dashboard, error) {
	sess, err := currentSession(ctx)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{Role: sess.Role}
	switch sess.Role {
	case domain.RoleAdmin:
		err = s.admin(ctx, d)
	case domain.RoleProfessor:
		err = s.professor(ctx, sess, d)
	case domain.RoleStudent:
		err = s.student(ctx, sess, d)
	default:
		err = domain.NewForbiddenError("unknown role " + sess.Role.String())
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func count[T any](ctx context.Context, list func(context.Context, url.Values) ([]T, error), dst *int) func() error {
	return func() error {
		items, err := list(ctx, nil)
		if err != nil {
			return err
		}
		*dst = len(items)
		return nil
	}
}

func (s *dashboardServiceImpl) admin(ctx context.Context, d *Dashboard) error {
	var students, professors, courses, exams, departments int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(count(gctx, s.catalogs.Students.All, &students))
	g.Go(count(gctx, s.catalogs.Professors.All, &professors))
	g.Go(count(gctx, s.catalogs.Courses.All, &courses))
	g.Go(count(gctx, s.catalogs.Exams.All, &exams))
	g.Go(count(gctx, s.catalogs.Departments.All, &departments))
	if err := g.Wait(); err != nil {
		return err
	}
	d.Counts = map[string]int{
		resource.Students:    students,
		resource.Professors:  professors,
		resource.Courses:     courses,
		resource.Exams:       exams,
		resource.Departments: departments,
	}
	return nil
}

func (s *dashboardServiceImpl) professor(ctx context.Context, sess *domain.Session, d *Dashboard) error {
	professorID, err := strconv.ParseInt(sess.UserID, 10, 64)
	if err != nil {
		return domain.NewInvalidInputError("session user id is not numeric")
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		key := cache.QueryKey{Resource: resource.Courses, Scope: sess.UserID, Params: "professor:" + sess.UserID}
		courses, err := cache.Fetch(gctx, s.queries, key, func(ctx context.Context) ([]domain.Course, error) {
			return s.professors.Courses(ctx, professorID)
		})
		d.Courses = courses
		return err
	})
	g.Go(func() error {
		exams, err := s.catalogs.Exams.All(gctx, url.Values{"status": {domain.ExamStatusGrading}})
		if err != nil {
			return err
		}
		// The backend filter is advisory; keep only exams really awaiting grading.
		awaiting := make([]domain.Exam, 0, len(exams))
		for _, e := range exams {
			if e.Status == domain.ExamStatusGrading {
				awaiting = append(awaiting, e)
			}
		}
		d.AwaitingGrading = awaiting
		return nil
	})
	return g.Wait()
}

func (s *dashboardServiceImpl) student(ctx context.Context, sess *domain.Session, d *Dashboard) error {
	studentID, err := strconv.ParseInt(sess.UserID, 10, 64)
	if err != nil {
		return domain.NewInvalidInputError("session user id is not numeric")
	}
	now := s.now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		exams, err := s.catalogs.Exams.All(gctx, url.Values{"status": {domain.ExamStatusScheduled}})
		if err != nil {
			return err
		}
		upcoming := make([]domain.Exam, 0, len(exams))
		for _, e := range exams {
			if e.Status == domain.ExamStatusScheduled && e.ScheduledAt.After(now) {
				upcoming = append(upcoming, e)
			}
		}
		sort.SliceStable(upcoming, func(i, j int) bool {
			return upcoming[i].ScheduledAt.Before(upcoming[j].ScheduledAt)
		})
		if len(upcoming) > upcomingExamsLimit {
			upcoming = upcoming[:upcomingExamsLimit]
		}
		d.UpcomingExams = upcoming
		return nil
	})
	g.Go(func() error {
		results, err := s.grading.StudentResults(gctx, studentID)
		d.PublishedResults = results
		return err
	})
	return g.Wait()
}
