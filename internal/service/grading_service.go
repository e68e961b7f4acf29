package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"campus-portal/internal/apiclient"
	"campus-portal/internal/cache"
	"campus-portal/internal/domain"
	"campus-portal/internal/logger"
	"campus-portal/internal/resource"
	"campus-portal/internal/upload"
	"campus-portal/internal/validation"

	"go.uber.org/zap"
)

const resultsResource = "results"

// GradingBackend is the exam and student result surface of the backend.
type GradingBackend interface {
	AnswerTarget(examID int64) upload.Target
	Grade(ctx context.Context, examID int64) (*domain.GradingJob, error)
	Results(ctx context.Context, examID int64, opts ...apiclient.RequestOption) ([]domain.ExamResult, error)
	OverrideResult(ctx context.Context, examID, studentID int64, o domain.GradeOverride) (*domain.ExamResult, error)
	Publish(ctx context.Context, examID int64) error
}

// StudentResultsBackend lists one student's results.
type StudentResultsBackend interface {
	Results(ctx context.Context, studentID int64, opts ...apiclient.RequestOption) ([]domain.ExamResult, error)
}

// AnswerFile is an uploaded answers archive. Close is called once the upload
// has finished, successfully or not.
type AnswerFile interface {
	io.ReaderAt
	io.Closer
}

// GradingService drives the exam grading workflow.
type GradingService interface {
	UploadAnswers(ctx context.Context, examID int64, fileName string, file AnswerFile, size int64) (string, error)
	UploadStatus(ctx context.Context, uploadID string) (upload.Status, error)
	AbortUpload(ctx context.Context, uploadID string) error
	Grade(ctx context.Context, examID int64) (*domain.GradingJob, error)
	Results(ctx context.Context, examID int64) ([]domain.ExamResult, error)
	OverrideResult(ctx context.Context, examID, studentID int64, o domain.GradeOverride) (*domain.ExamResult, error)
	Publish(ctx context.Context, examID int64) error
	StudentResults(ctx context.Context, studentID int64) ([]domain.ExamResult, error)
	// Wait blocks until every background upload has finished.
	Wait()
}

type gradingServiceImpl struct {
	exams    GradingBackend
	students StudentResultsBackend
	chunker  *upload.Chunker
	registry *upload.Registry
	queries  *cache.QueryCache
	audit    AuditService
	notifier domain.Notifier
	wg       sync.WaitGroup
}

func NewGradingService(
	exams GradingBackend,
	students StudentResultsBackend,
	chunker *upload.Chunker,
	registry *upload.Registry,
	queries *cache.QueryCache,
	audit AuditService,
	notifier domain.Notifier,
) GradingService {
	return &gradingServiceImpl{
		exams:    exams,
		students: students,
		chunker:  chunker,
		registry: registry,
		queries:  queries,
		audit:    audit,
		notifier: notifier,
	}
}

func currentSession(ctx context.Context) (*domain.Session, error) {
	sess, ok := domain.SessionFromContext(ctx)
	if !ok {
		return nil, domain.NewUnauthorizedError("not signed in")
	}
	return sess, nil
}

// requireRole returns the caller's session if it holds one of roles.
func requireRole(ctx context.Context, message string, roles ...domain.Role) (*domain.Session, error) {
	sess, err := currentSession(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if sess.Role == r {
			return sess, nil
		}
	}
	return nil, domain.NewForbiddenError(message)
}

func requireStaff(ctx context.Context) (*domain.Session, error) {
	return requireRole(ctx, "only staff can manage grading", domain.RoleAdmin, domain.RoleProfessor)
}

func examIDString(id int64) string { return strconv.FormatInt(id, 10) }

// UploadAnswers validates file and uploads it in the background. The returned
// id can be polled with UploadStatus and canceled with AbortUpload.
func (s *gradingServiceImpl) UploadAnswers(ctx context.Context, examID int64, fileName string, file AnswerFile, size int64) (string, error) {
	sess, err := requireStaff(ctx)
	if err != nil {
		file.Close()
		return "", err
	}
	if examID <= 0 {
		file.Close()
		return "", domain.NewInvalidInputError(fmt.Sprintf("invalid exam id: %d", examID))
	}
	if err := s.chunker.Validate(fileName, size); err != nil {
		file.Close()
		return "", err
	}

	id, uctx := s.registry.Begin(ctx, sess.UserID, fileName)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer file.Close()

		log := logger.Get().With(zap.String("upload_id", id), zap.Int64("exam_id", examID))
		_, err := s.chunker.Upload(uctx, s.exams.AnswerTarget(examID), file, size, fileName, func(pct int) {
			s.registry.Report(uctx, id, pct)
		})
		// uctx is canceled on abort; bookkeeping still has to reach the cache.
		done := context.WithoutCancel(uctx)
		s.registry.Finish(done, id, err)

		switch {
		case err == nil:
			s.audit.Record(done, domain.AuditUpload, resource.Exams, examIDString(examID), fileName)
			s.notify(done, domain.LevelSuccess, "", fmt.Sprintf("%s uploaded", fileName))
			log.Info("Answer upload completed")
		case errors.Is(err, domain.ErrUploadAborted):
			s.notify(done, domain.LevelInfo, domain.CodeUploadAborted, fmt.Sprintf("Upload of %s was canceled", fileName))
			log.Info("Answer upload canceled")
		default:
			// Backend failures were already published by the client.
			log.Warn("Answer upload failed", zap.Error(err))
		}
	}()
	return id, nil
}

func (s *gradingServiceImpl) notify(ctx context.Context, level domain.NotificationLevel, code domain.ErrorCode, msg string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, domain.Notification{Level: level, Code: code, Message: msg, At: time.Now()})
}

func (s *gradingServiceImpl) ownedUpload(ctx context.Context, uploadID string) (upload.Status, error) {
	sess, err := requireStaff(ctx)
	if err != nil {
		return upload.Status{}, err
	}
	st, err := s.registry.Progress(ctx, uploadID)
	if err != nil {
		return upload.Status{}, err
	}
	if sess.Role != domain.RoleAdmin && st.Owner != sess.UserID {
		return upload.Status{}, domain.NewNotFoundError("upload " + uploadID + " not found")
	}
	return st, nil
}

func (s *gradingServiceImpl) UploadStatus(ctx context.Context, uploadID string) (upload.Status, error) {
	return s.ownedUpload(ctx, uploadID)
}

func (s *gradingServiceImpl) AbortUpload(ctx context.Context, uploadID string) error {
	st, err := s.ownedUpload(ctx, uploadID)
	if err != nil {
		return err
	}
	if st.State != upload.StateRunning {
		return domain.NewInvalidInputError(fmt.Sprintf("upload %s is already %s", uploadID, st.State))
	}
	return s.registry.Abort(ctx, uploadID)
}

func (s *gradingServiceImpl) Grade(ctx context.Context, examID int64) (*domain.GradingJob, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	job, err := s.exams.Grade(ctx, examID)
	if err != nil {
		return nil, err
	}
	s.queries.Invalidate(ctx, resource.Exams, resultsResource)
	s.audit.Record(ctx, domain.AuditGrade, resource.Exams, examIDString(examID), fmt.Sprintf("%d answers queued", job.Queued))
	return job, nil
}

func (s *gradingServiceImpl) Results(ctx context.Context, examID int64) ([]domain.ExamResult, error) {
	sess, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}
	key := cache.QueryKey{Resource: resultsResource, Scope: sess.UserID, Params: "exam:" + examIDString(examID)}
	return cache.Fetch(ctx, s.queries, key, func(ctx context.Context) ([]domain.ExamResult, error) {
		return s.exams.Results(ctx, examID)
	})
}

func (s *gradingServiceImpl) OverrideResult(ctx context.Context, examID, studentID int64, o domain.GradeOverride) (*domain.ExamResult, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	if err := validation.Default().Struct(o); err != nil {
		return nil, err
	}
	res, err := s.exams.OverrideResult(ctx, examID, studentID, o)
	if err != nil {
		return nil, err
	}
	s.queries.Invalidate(ctx, resultsResource)
	s.audit.Record(ctx, domain.AuditUpdate, resultsResource, examIDString(examID)+"/"+strconv.FormatInt(studentID, 10),
		fmt.Sprintf("score %.2f", o.Score))
	return res, nil
}

func (s *gradingServiceImpl) Publish(ctx context.Context, examID int64) error {
	if _, err := requireStaff(ctx); err != nil {
		return err
	}
	if err := s.exams.Publish(ctx, examID); err != nil {
		return err
	}
	s.queries.Invalidate(ctx, resource.Exams, resultsResource)
	s.audit.Record(ctx, domain.AuditPublish, resource.Exams, examIDString(examID), "")
	return nil
}

// StudentResults lists results of one student. Students only see their own
// published results.
func (s *gradingServiceImpl) StudentResults(ctx context.Context, studentID int64) ([]domain.ExamResult, error) {
	sess, err := currentSession(ctx)
	if err != nil {
		return nil, err
	}
	isStudent := sess.Role == domain.RoleStudent
	if isStudent && sess.UserID != strconv.FormatInt(studentID, 10) {
		return nil, domain.NewForbiddenError("students can only view their own results")
	}
	key := cache.QueryKey{Resource: resultsResource, Scope: sess.UserID, Params: "student:" + strconv.FormatInt(studentID, 10)}
	results, err := cache.Fetch(ctx, s.queries, key, func(ctx context.Context) ([]domain.ExamResult, error) {
		return s.students.Results(ctx, studentID)
	})
	if err != nil || !isStudent {
		return results, err
	}
	published := make([]domain.ExamResult, 0, len(results))
	for _, r := range results {
		if r.Published {
			published = append(published, r)
		}
	}
	return published, nil
}

func (s *gradingServiceImpl) Wait() { s.wg.Wait() }
