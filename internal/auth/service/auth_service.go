package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ingot/internal/audit"
	devicedomain "ingot/internal/device/domain"
	"ingot/internal/netutil"
	"ingot/internal/security"
	sessiondomain "ingot/internal/session/domain"
	sessionservice "ingot/internal/session/service"
	userdomain "ingot/internal/user/domain"
)

// Sentinel errors for the auth service; the handler maps them to RPC codes.
// Unknown user and wrong password both surface as ErrInvalidCredentials so
// the interface cannot be used for username enumeration; the distinction is
// kept only in the audit trail.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidDeviceID     = errors.New("invalid device id")
	ErrInvalidAddress      = netutil.ErrInvalidAddress
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// Token is one signed token plus the metadata returned to clients. Algorithm
// is a descriptor of the signing algorithm for forward compatibility.
type Token struct {
	Value     string
	Algorithm string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// LoginResult holds the outcome of a successful login.
type LoginResult struct {
	AccessToken  Token
	AccessJTI    string
	RefreshToken Token
	UserID       string
	SessionID    string
}

// RefreshResult holds the outcome of a successful token refresh.
type RefreshResult struct {
	AccessToken Token
	AccessJTI   string
	UserID      string
	SessionID   string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
}

// DeviceRepo is the minimal device repository needed by the auth service.
type DeviceRepo interface {
	GetByID(ctx context.Context, id string) (*devicedomain.Device, error)
	Create(ctx context.Context, d *devicedomain.Device) error
}

// SessionManager is the session lifecycle surface needed by the auth service.
type SessionManager interface {
	Create(ctx context.Context, userID, deviceID, originNetwork string, ttl time.Duration) (*sessiondomain.Session, error)
	CheckActive(ctx context.Context, id string) (*sessiondomain.Session, error)
	Touch(ctx context.Context, id string) error
	Revoke(ctx context.Context, id string) error
}

// AuthService composes credential verification, session creation, and token
// issuance into the login transaction, and resolves identities from access
// tokens.
type AuthService struct {
	users       UserRepo
	devices     DeviceRepo
	sessions    SessionManager
	hasher      *security.Hasher
	tokens      *security.TokenProvider
	sessionTTL  time.Duration
	auditLogger audit.AuditLogger
}

// NewAuthService returns an AuthService with the given dependencies.
// auditLogger may be nil; then auth events are not recorded.
func NewAuthService(
	users UserRepo,
	devices DeviceRepo,
	sessions SessionManager,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	sessionTTL time.Duration,
	auditLogger audit.AuditLogger,
) *AuthService {
	return &AuthService{
		users:       users,
		devices:     devices,
		sessions:    sessions,
		hasher:      hasher,
		tokens:      tokens,
		sessionTTL:  sessionTTL,
		auditLogger: auditLogger,
	}
}

// Login runs one login attempt: lookup user, verify password, create a
// session, issue tokens. Tokens are only issued after the session row is
// persisted; a failure after that point leaves an orphaned session that
// simply expires. No password or hash appears in the result.
func (s *AuthService) Login(ctx context.Context, username, password, deviceID, clientAddr string) (*LoginResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if deviceID != "" {
		if _, err := uuid.Parse(deviceID); err != nil {
			return nil, ErrInvalidDeviceID
		}
	}
	originNetwork, err := netutil.OriginNetwork(clientAddr)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.auditEvent(ctx, "", audit.ActionLoginFailure, "user", "unknown_user")
		return nil, ErrInvalidCredentials
	}
	if user.Status != userdomain.UserStatusActive {
		s.auditEvent(ctx, user.ID, audit.ActionLoginFailure, "user", "status_"+string(user.Status))
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		// Fail closed: a malformed stored hash is an internal error,
		// never an authentication.
		s.auditEvent(ctx, user.ID, audit.ActionLoginFailure, "user", "hash_error")
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.auditEvent(ctx, user.ID, audit.ActionLoginFailure, "user", "wrong_password")
		return nil, ErrInvalidCredentials
	}

	if deviceID != "" {
		if err := s.ensureDevice(ctx, user.ID, deviceID); err != nil {
			return nil, err
		}
	}

	session, err := s.sessions.Create(ctx, user.ID, deviceID, originNetwork, s.sessionTTL)
	if err != nil {
		return nil, err
	}

	accessValue, jti, accessExp, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refreshValue, refreshExp, err := s.tokens.IssueRefresh(user.ID, session.ID)
	if err != nil {
		return nil, err
	}

	s.auditEvent(ctx, user.ID, audit.ActionLoginSuccess, "session", session.ID)
	alg := s.tokens.Algorithm()
	return &LoginResult{
		AccessToken: Token{
			Value:     accessValue,
			Algorithm: alg,
			IssuedAt:  session.CreatedAt,
			ExpiresAt: accessExp,
		},
		AccessJTI: jti,
		RefreshToken: Token{
			Value:     refreshValue,
			Algorithm: alg,
			IssuedAt:  session.CreatedAt,
			ExpiresAt: refreshExp,
		},
		UserID:    user.ID,
		SessionID: session.ID,
	}, nil
}

// ensureDevice creates a thin device record when the id is unknown. Device
// ownership and fingerprint parsing live outside the auth core.
func (s *AuthService) ensureDevice(ctx context.Context, userID, deviceID string) error {
	dev, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return err
	}
	if dev != nil {
		return nil
	}
	return s.devices.Create(ctx, &devicedomain.Device{
		ID:        deviceID,
		UserID:    userID,
		Status:    devicedomain.DeviceStatusActive,
		CreatedAt: time.Now().UTC(),
	})
}

// ResolveIdentity verifies an access token and returns the subject user.
// Verification is purely cryptographic and temporal: security.ErrTokenExpired
// and security.ErrInvalidToken pass through unchanged, and the session is not
// consulted.
func (s *AuthService) ResolveIdentity(ctx context.Context, accessToken string) (*userdomain.User, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Refresh verifies a refresh token and issues a new access token. The bound
// session must still be active: a revoked, invalidated, or expired session
// never backs new tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	session, err := s.sessions.CheckActive(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, sessionservice.ErrSessionNotActive) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	_ = s.sessions.Touch(ctx, session.ID)

	accessValue, jti, accessExp, err := s.tokens.IssueAccess(claims.Subject)
	if err != nil {
		return nil, err
	}
	s.auditEvent(ctx, claims.Subject, audit.ActionTokenRefreshed, "session", session.ID)
	return &RefreshResult{
		AccessToken: Token{
			Value:     accessValue,
			Algorithm: s.tokens.Algorithm(),
			IssuedAt:  time.Now().UTC(),
			ExpiresAt: accessExp,
		},
		AccessJTI: jti,
		UserID:    claims.Subject,
		SessionID: session.ID,
	}, nil
}

// Logout revokes the session bound to the refresh token. An invalid or
// expired token is a no-op; logout never fails on bad input.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.SessionID); err != nil {
		return err
	}
	s.auditEvent(ctx, claims.Subject, audit.ActionLogout, "session", claims.SessionID)
	return nil
}

func (s *AuthService) auditEvent(ctx context.Context, userID, action, resource, metadata string) {
	if s.auditLogger == nil {
		return
	}
	s.auditLogger.LogEvent(ctx, userID, action, resource, metadata)
}
