package interceptors

import (
	"context"
	"testing"
)

func TestWithIdentity_RoundTrip(t *testing.T) {
	ctx := WithIdentity(context.Background(), "user-1", "jti-1")

	userID, ok := GetUserID(ctx)
	if !ok || userID != "user-1" {
		t.Errorf("GetUserID = %q, %v; want user-1, true", userID, ok)
	}
	tokenID, ok := GetTokenID(ctx)
	if !ok || tokenID != "jti-1" {
		t.Errorf("GetTokenID = %q, %v; want jti-1, true", tokenID, ok)
	}
}

func TestGetIdentity_Unset(t *testing.T) {
	ctx := context.Background()

	if v, ok := GetUserID(ctx); ok || v != "" {
		t.Errorf("GetUserID on bare context = %q, %v; want \"\", false", v, ok)
	}
	if v, ok := GetTokenID(ctx); ok || v != "" {
		t.Errorf("GetTokenID on bare context = %q, %v; want \"\", false", v, ok)
	}
}
