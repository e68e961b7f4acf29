package service

import (
	"context"
	"errors"
	"time"

	"campus-portal/internal/authz"
	"campus-portal/internal/config"
	"campus-portal/internal/domain"
	"campus-portal/internal/logger"
	"campus-portal/internal/session"
	"campus-portal/internal/util"
	"campus-portal/internal/validation"

	"go.uber.org/zap"
)

// Authenticator exchanges credentials with the backend.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error)
}

// LoginOutcome is everything the HTTP layer needs to set cookies.
type LoginOutcome struct {
	Session    *domain.Session
	RoleCookie string
	Status     session.Status
}

// AuthService owns login, logout and the session countdown.
type AuthService interface {
	Login(ctx context.Context, creds domain.Credentials) (*LoginOutcome, error)
	Logout(ctx context.Context, sessionID string) error
	// Resolve loads the session and, when touch is set, records activity.
	Resolve(ctx context.Context, sessionID string, touch bool) (*domain.Session, session.Status, error)
	Extend(ctx context.Context, sessionID string) (session.Status, error)
	// Expire clears everything stored for a session whose countdown ran out.
	Expire(sessionID string)
}

type authServiceImpl struct {
	backend       Authenticator
	store         *session.Store
	manager       *session.Manager
	notifications NotificationService
	audit         AuditService
	cfg           config.SessionConfig
	jwtCfg        config.JWTConfig
	now           func() time.Time
}

// NewAuthService creates a new instance of AuthService and registers it for
// countdown expiry.
func NewAuthService(
	backend Authenticator,
	store *session.Store,
	manager *session.Manager,
	notifications NotificationService,
	audit AuditService,
	appConfig *config.Config,
) (AuthService, error) {
	if len(appConfig.JWT.SecretKey) < 32 {
		return nil, errors.New("jwt secret key must be at least 32 bytes long")
	}
	s := &authServiceImpl{
		backend:       backend,
		store:         store,
		manager:       manager,
		notifications: notifications,
		audit:         audit,
		cfg:           appConfig.Session,
		jwtCfg:        appConfig.JWT,
		now:           time.Now,
	}
	manager.OnExpire(s.Expire)
	return s, nil
}

func (s *authServiceImpl) recordTTL(role domain.Role) time.Duration {
	return s.cfg.TimeoutFor(role.String()) + s.cfg.WarningGrace
}

func (s *authServiceImpl) Login(ctx context.Context, creds domain.Credentials) (*LoginOutcome, error) {
	if err := validation.Default().Struct(creds); err != nil {
		return nil, err
	}
	res, err := s.backend.Login(ctx, creds)
	if err != nil {
		var derr *domain.DomainError
		if errors.As(err, &derr) && (derr.Code == domain.CodeUnauthorized || derr.Code == domain.CodeBadRequest) {
			return nil, domain.NewUnauthorizedError("Invalid username or password")
		}
		return nil, err
	}
	role, ok := domain.ParseRole(res.User.Role)
	if !ok {
		return nil, domain.NewForbiddenError("This account has no portal role")
	}

	sess := &domain.Session{
		ID:        util.NewULID(),
		UserID:    res.User.ID,
		Name:      res.User.Name,
		Role:      role,
		Token:     res.Token,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, sess, s.recordTTL(role)); err != nil {
		return nil, err
	}
	cookie, err := authz.SignRoleCookie([]byte(s.jwtCfg.SecretKey), sess.UserID, sess.ID, role, s.jwtCfg.RoleCookieTTL, s.now())
	if err != nil {
		_ = s.store.Delete(ctx, sess.ID)
		return nil, domain.NewInternalError("failed to issue role cookie", err)
	}
	status := s.manager.Start(sess.ID, role)

	ctx = domain.WithSession(ctx, sess)
	s.audit.Record(ctx, domain.AuditLogin, "session", sess.ID, "")
	logger.Get().Info("User logged in", zap.String("user_id", sess.UserID), zap.String("role", role.String()))
	return &LoginOutcome{Session: sess, RoleCookie: cookie, Status: status}, nil
}

func (s *authServiceImpl) Logout(ctx context.Context, sessionID string) error {
	if sess, err := s.store.Load(ctx, sessionID); err == nil {
		s.audit.Record(domain.WithSession(ctx, sess), domain.AuditLogout, "session", sessionID, "")
	}
	s.manager.End(sessionID)
	s.notifications.Clear(ctx, sessionID)
	return s.store.Delete(ctx, sessionID)
}

func (s *authServiceImpl) Resolve(ctx context.Context, sessionID string, touch bool) (*domain.Session, session.Status, error) {
	sess, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			s.manager.End(sessionID)
		}
		return nil, session.Status{State: session.StateExpired}, err
	}

	status, running := s.manager.Status(sessionID)
	if !running {
		// The countdown lives in memory; a restart or another instance loses it.
		status = s.manager.Start(sessionID, sess.Role)
	} else if touch {
		status, _ = s.manager.Touch(sessionID)
	}
	if touch && status.State == session.StateActive {
		if err := s.store.Refresh(ctx, sessionID, s.recordTTL(sess.Role)); err != nil {
			logger.Get().Warn("Failed to refresh session record", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return sess, status, nil
}

func (s *authServiceImpl) Extend(ctx context.Context, sessionID string) (session.Status, error) {
	sess, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return session.Status{State: session.StateExpired}, err
	}
	status, err := s.manager.Extend(sessionID)
	if err != nil {
		return status, err
	}
	if err := s.store.Refresh(ctx, sessionID, s.recordTTL(sess.Role)); err != nil {
		logger.Get().Warn("Failed to refresh session record", zap.String("session_id", sessionID), zap.Error(err))
	}
	return status, nil
}

func (s *authServiceImpl) Expire(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Delete(ctx, sessionID); err != nil {
		logger.Get().Warn("Failed to delete expired session", zap.String("session_id", sessionID), zap.Error(err))
	}
	s.notifications.Clear(ctx, sessionID)
}
