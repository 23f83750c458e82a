package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestWithUser_UserIDFromCtx(t *testing.T) {
	userID := uuid.New()
	ctx := WithUser(context.Background(), userID, "user")

	got, err := UserIDFromCtx(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != userID {
		t.Fatalf("expected %v, got %v", userID, got)
	}
}

func TestUserIDFromCtx_EmptyContext(t *testing.T) {
	_, err := UserIDFromCtx(context.Background())
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserIDFromCtx_NilUUID(t *testing.T) {
	ctx := WithUser(context.Background(), uuid.Nil, "user")
	_, err := UserIDFromCtx(ctx)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for uuid.Nil, got %v", err)
	}
}

func TestRoleFromCtx(t *testing.T) {
	ctx := WithUser(context.Background(), uuid.New(), RoleAdmin)
	if got := RoleFromCtx(ctx); got != RoleAdmin {
		t.Fatalf("expected %q, got %q", RoleAdmin, got)
	}
}

func TestRoleFromCtx_EmptyContext(t *testing.T) {
	if got := RoleFromCtx(context.Background()); got != "" {
		t.Fatalf("expected empty role, got %q", got)
	}
}

func TestUserIDFromCtx_Isolation(t *testing.T) {
	userID1 := uuid.New()
	userID2 := uuid.New()

	ctx1 := WithUser(context.Background(), userID1, "user")
	ctx2 := WithUser(context.Background(), userID2, "user")

	got1, _ := UserIDFromCtx(ctx1)
	got2, _ := UserIDFromCtx(ctx2)

	if got1 != userID1 {
		t.Fatalf("ctx1: expected %v, got %v", userID1, got1)
	}
	if got2 != userID2 {
		t.Fatalf("ctx2: expected %v, got %v", userID2, got2)
	}
	if got1 == got2 {
		t.Fatal("expected different user IDs in isolated contexts")
	}
}
