package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	devicedomain "ingot/internal/device/domain"
	"ingot/internal/security"
	sessiondomain "ingot/internal/session/domain"
	sessionrepo "ingot/internal/session/repository"
	sessionservice "ingot/internal/session/service"
	userdomain "ingot/internal/user/domain"
)

// In-memory fakes. The session manager is the real one over a fake repo so
// the active-session checks run against real lifecycle logic.

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*userdomain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*userdomain.User)}
}

func (r *memoryUserRepo) GetByID(_ context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memoryUserRepo) GetByUsername(_ context.Context, username string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepo) add(u *userdomain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = u
}

type memoryDeviceRepo struct {
	mu      sync.Mutex
	devices map[string]*devicedomain.Device
}

func newMemoryDeviceRepo() *memoryDeviceRepo {
	return &memoryDeviceRepo{devices: make(map[string]*devicedomain.Device)}
}

func (r *memoryDeviceRepo) GetByID(_ context.Context, id string) (*devicedomain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *memoryDeviceRepo) Create(_ context.Context, d *devicedomain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.devices[d.ID] = &cp
	return nil
}

type memorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*sessiondomain.Session
}

var _ sessionrepo.Repository = (*memorySessionRepo)(nil)

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{sessions: make(map[string]*sessiondomain.Session)}
}

func (r *memorySessionRepo) GetByID(_ context.Context, id string) (*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memorySessionRepo) ListByUser(_ context.Context, userID string) ([]*sessiondomain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*sessiondomain.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memorySessionRepo) Create(_ context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *memorySessionRepo) Revoke(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.RevokedAt = &at
		s.IsActive = false
	}
	return nil
}

func (r *memorySessionRepo) Invalidate(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.InvalidatedAt = &at
		s.IsActive = false
	}
	return nil
}

func (r *memorySessionRepo) UpdateLastAccessed(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.LastAccessedAt = &at
	}
	return nil
}

func (r *memorySessionRepo) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false, nil
	}
	delete(r.sessions, id)
	return true, nil
}

// recordingAudit captures audit events for assertions.
type recordingAudit struct {
	mu     sync.Mutex
	events []string // action + "/" + metadata
}

func (a *recordingAudit) LogEvent(_ context.Context, _, action, _, metadata string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, action+"/"+metadata)
}

func (a *recordingAudit) has(event string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range a.events {
		if e == event {
			return true
		}
	}
	return false
}

type authFixture struct {
	svc      *AuthService
	users    *memoryUserRepo
	devices  *memoryDeviceRepo
	sessions *memorySessionRepo
	manager  *sessionservice.Manager
	tokens   *security.TokenProvider
	audit    *recordingAudit
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := newMemoryUserRepo()
	devices := newMemoryDeviceRepo()
	sessions := newMemorySessionRepo()
	manager := sessionservice.NewManager(sessions)

	ks, err := security.NewKeySet(security.SigningKey{KID: "test-1", Secret: make([]byte, 32)})
	if err != nil {
		t.Fatalf("NewKeySet: %v", err)
	}
	tokens := security.NewTokenProvider(ks, "ingot-test", time.Hour, 24*time.Hour)
	hasher := security.NewHasher(security.HashParams{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	rec := &recordingAudit{}

	f := &authFixture{
		svc:      NewAuthService(users, devices, manager, hasher, tokens, 30*24*time.Hour, rec),
		users:    users,
		devices:  devices,
		sessions: sessions,
		manager:  manager,
		tokens:   tokens,
		audit:    rec,
	}

	hash, err := hasher.Hash("Str0ng!Pass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	now := time.Now().UTC()
	users.add(&userdomain.User{
		ID:           "user-1",
		Username:     "alice",
		PasswordHash: hash,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return f
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "Alice", "Str0ng!Pass", "", "203.0.113.77")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.UserID != "user-1" {
		t.Errorf("user id = %q, want user-1", result.UserID)
	}
	if result.AccessToken.Algorithm != security.AlgHS256 {
		t.Errorf("algorithm = %q, want HS256", result.AccessToken.Algorithm)
	}

	// Access token resolves back to the user.
	claims, err := f.tokens.VerifyAccess(result.AccessToken.Value)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
	if claims.ID != result.AccessJTI {
		t.Errorf("jti = %q, want %q", claims.ID, result.AccessJTI)
	}

	// Refresh token is bound to the created session.
	refreshClaims, err := f.tokens.VerifyRefresh(result.RefreshToken.Value)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if refreshClaims.SessionID != result.SessionID {
		t.Errorf("sid = %q, want %q", refreshClaims.SessionID, result.SessionID)
	}

	// The session records the origin network prefix, not the host address.
	session, err := f.manager.Find(ctx, result.SessionID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if session.OriginNetwork != "203.0.113.0/24" {
		t.Errorf("origin network = %q, want 203.0.113.0/24", session.OriginNetwork)
	}

	if !f.audit.has("login_success/" + result.SessionID) {
		t.Error("login success should be audited")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "alice", "Wr0ng!Pass", "", "203.0.113.77")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login error = %v, want ErrInvalidCredentials", err)
	}
	// No session may exist after a failed login.
	list, err := f.sessions.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("failed login created %d sessions, want 0", len(list))
	}
	if !f.audit.has("login_failure/wrong_password") {
		t.Error("wrong password should be audited")
	}
}

func TestLogin_UnknownUserIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, unknownErr := f.svc.Login(ctx, "nobody", "Str0ng!Pass", "", "203.0.113.77")
	_, wrongErr := f.svc.Login(ctx, "alice", "Wr0ng!Pass", "", "203.0.113.77")

	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("errors = %v / %v, both must be ErrInvalidCredentials", unknownErr, wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Error("unknown user and wrong password must be indistinguishable at the interface")
	}
	// The distinction survives only in the audit trail.
	if !f.audit.has("login_failure/unknown_user") {
		t.Error("unknown user should be audited as such")
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.mu.Lock()
	f.users.users["user-1"].Status = userdomain.UserStatusBanned
	f.users.mu.Unlock()

	if _, err := f.svc.Login(ctx, "alice", "Str0ng!Pass", "", "203.0.113.77"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login for banned user error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_InvalidArguments(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Login(ctx, "alice", "Str0ng!Pass", "not-a-uuid", "203.0.113.77"); !errors.Is(err, ErrInvalidDeviceID) {
		t.Errorf("bad device id error = %v, want ErrInvalidDeviceID", err)
	}
	if _, err := f.svc.Login(ctx, "alice", "Str0ng!Pass", "", "not-an-ip"); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("bad address error = %v, want ErrInvalidAddress", err)
	}
	if _, err := f.svc.Login(ctx, "", "Str0ng!Pass", "", "203.0.113.77"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("empty username error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_MalformedStoredHashFailsClosed(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.mu.Lock()
	f.users.users["user-1"].PasswordHash = "corrupted"
	f.users.mu.Unlock()

	_, err := f.svc.Login(ctx, "alice", "Str0ng!Pass", "", "203.0.113.77")
	if err == nil {
		t.Fatal("login with corrupted stored hash must fail")
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("data-integrity failure should not masquerade as bad credentials")
	}
	if !errors.Is(err, security.ErrInvalidHash) {
		t.Errorf("error = %v, want wrapped ErrInvalidHash", err)
	}
}

func TestLogin_LazyDeviceCreate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	const deviceID = "7b0d1c6e-9f1a-4f6e-8a3b-2c4d5e6f7a8b"

	result, err := f.svc.Login(ctx, "alice", "Str0ng!Pass", deviceID, "203.0.113.77")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	dev, err := f.devices.GetByID(ctx, deviceID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if dev == nil {
		t.Fatal("unknown device id should be created on login")
	}
	if dev.UserID != "user-1" {
		t.Errorf("device user = %q, want user-1", dev.UserID)
	}

	session, err := f.manager.Find(ctx, result.SessionID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if session.DeviceID != deviceID {
		t.Errorf("session device = %q, want %q", session.DeviceID, deviceID)
	}

	// A second login with the same device reuses the record.
	if _, err := f.svc.Login(ctx, "alice", "Str0ng!Pass", deviceID, "203.0.113.77"); err != nil {
		t.Fatalf("second Login: %v", err)
	}
}

func TestResolveIdentity(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "alice", "Str0ng!Pass", "", "203.0.113.77")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	user, err := f.svc.ResolveIdentity(ctx, result.AccessToken.Value)
	if err != nil {
		t.Fatalf("ResolveIdentity: %v", err)
	}
	if user.ID != "user-1" || user.Username != "alice" {
		t.Errorf("resolved user = %+v", user)
	}

	if _, err := f.svc.ResolveIdentity(ctx, "garbage"); !errors.Is(err, security.ErrInvalidToken) {
		t.Errorf("garbage token error = %v, want ErrInvalidToken", err)
	}
}

func TestResolveIdentity_ExpiredToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	ks, err := security.NewKeySet(security.SigningKey{KID: "test-1", Secret: make([]byte, 32)})
	if err != nil {
		t.Fatalf("NewKeySet: %v", err)
	}
	expiredProvider := security.NewTokenProvider(ks, "ingot-test", -time.Minute, 24*time.Hour)
	token, _, _, err := expiredProvider.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := f.svc.ResolveIdentity(ctx, token); !errors.Is(err, security.ErrTokenExpired) {
		t.Errorf("expired token error = %v, want ErrTokenExpired", err)
	}
}

func TestRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "alice", "Str0ng!Pass", "", "203.0.113.77")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	refreshed, err := f.svc.Refresh(ctx, result.RefreshToken.Value)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.SessionID != result.SessionID {
		t.Errorf("refresh session = %q, want %q", refreshed.SessionID, result.SessionID)
	}
	if refreshed.AccessJTI == result.AccessJTI {
		t.Error("refresh must mint a fresh access token")
	}

	// Refresh touches the session without extending it.
	session, err := f.manager.Find(ctx, result.SessionID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if session.LastAccessedAt == nil {
		t.Error("refresh should update last-accessed timestamp")
	}
}

func TestRefresh_RevokedSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "alice", "Str0ng!Pass", "", "203.0.113.77")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.manager.Revoke(ctx, result.SessionID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	// The token itself is still cryptographically valid, but the session is
	// terminal.
	if _, err := f.svc.Refresh(ctx, result.RefreshToken.Value); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("refresh on revoked session error = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	for _, token := range []string{"", "garbage"} {
		if _, err := f.svc.Refresh(ctx, token); !errors.Is(err, ErrInvalidRefreshToken) {
			t.Errorf("Refresh(%q) error = %v, want ErrInvalidRefreshToken", token, err)
		}
	}
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, "alice", "Str0ng!Pass", "", "203.0.113.77")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.svc.Logout(ctx, result.RefreshToken.Value); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	session, err := f.manager.Find(ctx, result.SessionID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if session.RevokedAt == nil || session.IsActive {
		t.Error("logout should revoke the session")
	}
	if _, err := f.svc.Refresh(ctx, result.RefreshToken.Value); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("refresh after logout error = %v, want ErrInvalidRefreshToken", err)
	}

	// Invalid tokens are a no-op.
	if err := f.svc.Logout(ctx, "garbage"); err != nil {
		t.Errorf("Logout with invalid token: %v", err)
	}
	if err := f.svc.Logout(ctx, ""); err != nil {
		t.Errorf("Logout with empty token: %v", err)
	}
}
