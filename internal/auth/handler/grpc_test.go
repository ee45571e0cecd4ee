package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ingot/internal/auth/service"
	"ingot/internal/netutil"
	"ingot/internal/security"
)

func wantCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("error is not a gRPC status: %v", err)
	}
	if st.Code() != want {
		t.Errorf("status code = %v, want %v", st.Code(), want)
	}
}

func TestLogin_NilAuthService(t *testing.T) {
	srv := NewAuthServer(nil)
	_, err := srv.Login(context.Background(), &LoginRequest{
		Username:      "alice",
		Password:      "Str0ng!Pass",
		ClientAddress: "203.0.113.77",
	})
	wantCode(t, err, codes.Unimplemented)
}

func TestRefresh_NilAuthService(t *testing.T) {
	srv := NewAuthServer(nil)
	_, err := srv.Refresh(context.Background(), &RefreshRequest{RefreshToken: "refresh-token"})
	wantCode(t, err, codes.Unimplemented)
}

func TestLogout_NilAuthService(t *testing.T) {
	srv := NewAuthServer(nil)
	_, err := srv.Logout(context.Background(), &LogoutRequest{RefreshToken: "refresh-token"})
	wantCode(t, err, codes.Unimplemented)
}

func TestResolveIdentity_NilAuthService(t *testing.T) {
	srv := NewAuthServer(nil)
	_, err := srv.ResolveIdentity(context.Background(), &ResolveIdentityRequest{AccessToken: "access-token"})
	wantCode(t, err, codes.Unimplemented)
}

func TestResolveIdentity_TokenErrorsAreArgumentErrors(t *testing.T) {
	ks, err := security.NewKeySet(security.SigningKey{KID: "test-1", Secret: make([]byte, 32)})
	if err != nil {
		t.Fatalf("NewKeySet: %v", err)
	}
	tokens := security.NewTokenProvider(ks, "ingot-test", -time.Minute, 24*time.Hour)
	srv := NewAuthServer(service.NewAuthService(nil, nil, nil, nil, tokens, 0, nil))

	_, err = srv.ResolveIdentity(context.Background(), &ResolveIdentityRequest{AccessToken: "garbage"})
	wantCode(t, err, codes.InvalidArgument)

	expired, _, _, err := tokens.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	_, err = srv.ResolveIdentity(context.Background(), &ResolveIdentityRequest{AccessToken: expired})
	wantCode(t, err, codes.InvalidArgument)
}

func TestMapAuthError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"invalid credentials", service.ErrInvalidCredentials, codes.Unauthenticated},
		{"invalid refresh token", service.ErrInvalidRefreshToken, codes.Unauthenticated},
		{"expired token", security.ErrTokenExpired, codes.Unauthenticated},
		{"invalid token", security.ErrInvalidToken, codes.Unauthenticated},
		{"invalid device id", service.ErrInvalidDeviceID, codes.InvalidArgument},
		{"invalid address", netutil.ErrInvalidAddress, codes.InvalidArgument},
		{"store failure stays generic", errors.New("pq: connection refused"), codes.Internal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wantCode(t, mapAuthError(tc.err), tc.want)
		})
	}
}

func TestMapAuthError_NoDetailLeak(t *testing.T) {
	err := mapAuthError(errors.New("dial tcp 10.0.0.5:5432: i/o timeout"))
	st, _ := status.FromError(err)
	if st.Message() != "internal error" {
		t.Errorf("internal error message = %q, must not leak details", st.Message())
	}
}
