// Package server assembles the gRPC server: interceptor chain, telemetry
// stats handler, health service, and the handler set.
package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"

	auditrepo "ingot/internal/audit/repository"
	authhandler "ingot/internal/auth/handler"
	authservice "ingot/internal/auth/service"
	"ingot/internal/security"
	"ingot/internal/server/interceptors"
	sessionhandler "ingot/internal/session/handler"
	sessionservice "ingot/internal/session/service"
	userhandler "ingot/internal/user/handler"
	userservice "ingot/internal/user/service"
)

// Deps holds the service dependencies for the gRPC handlers.
type Deps struct {
	// Auth backs Login/Refresh/Logout/ResolveIdentity. If nil, auth RPCs
	// return Unimplemented.
	Auth *authservice.AuthService
	// Users backs user creation and credential maintenance.
	Users *userservice.UserService
	// Sessions backs session listing and revocation.
	Sessions *sessionservice.Manager
	// Tokens verifies Bearer tokens in the auth interceptor.
	Tokens *security.TokenProvider
	// AuditRepo feeds the audit interceptor. If nil, RPCs are not audited.
	AuditRepo auditrepo.Repository
}

// Handlers is the assembled handler set; the transport registration layer
// binds these to wire service descriptors.
type Handlers struct {
	Auth    *authhandler.AuthServer
	User    *userhandler.UserServer
	Session *sessionhandler.SessionServer
}

// PublicMethods is the set of full method names reachable without a Bearer
// token.
var PublicMethods = map[string]bool{
	"/ingot.auth.v1.AuthService/Login":           true,
	"/ingot.auth.v1.AuthService/Refresh":         true,
	"/ingot.auth.v1.AuthService/Logout":          true,
	"/ingot.auth.v1.AuthService/ResolveIdentity": true,
	"/grpc.health.v1.Health/Check":               true,
	"/grpc.health.v1.Health/Watch":               true,
}

// skipAuditMethods is the set of full method names the audit interceptor
// ignores.
var skipAuditMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
}

// New builds the gRPC server with the auth and audit interceptor chain, the
// otelgrpc stats handler, and the health service registered. It returns the
// server together with the handler set for transport registration.
func New(deps Deps) (*grpc.Server, *Handlers) {
	unary := []grpc.UnaryServerInterceptor{}
	if deps.Tokens != nil {
		unary = append(unary, interceptors.AuthUnary(deps.Tokens, PublicMethods))
	}
	if deps.AuditRepo != nil {
		unary = append(unary, interceptors.AuditUnary(deps.AuditRepo, skipAuditMethods))
	}

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(unary...),
	)

	healthpb.RegisterHealthServer(s, health.NewServer())

	h := &Handlers{
		Auth:    authhandler.NewAuthServer(deps.Auth),
		User:    userhandler.NewUserServer(deps.Users),
		Session: sessionhandler.NewSessionServer(deps.Sessions),
	}
	return s, h
}
