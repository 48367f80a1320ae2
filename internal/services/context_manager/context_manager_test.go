package context_manager

import (
	"context"
	"testing"
)

func TestSetUserContext(t *testing.T) {
	ctx := context.Background()
	ctx = SetUserContext(ctx, "123456789")

	id := GetUserContext(ctx)
	if id != "123456789" {
		t.Errorf("expected user '123456789', got %q", id)
	}
}

func TestGetUserContext_Empty(t *testing.T) {
	ctx := context.Background()

	id := GetUserContext(ctx)
	if id != "" {
		t.Errorf("expected empty user from fresh context, got %q", id)
	}
}

func TestSetUserContext_Overwrite(t *testing.T) {
	ctx := context.Background()
	ctx = SetUserContext(ctx, "1")
	ctx = SetUserContext(ctx, "2")

	id := GetUserContext(ctx)
	if id != "2" {
		t.Errorf("expected user '2', got %q", id)
	}
}

func TestChannelAndRolesContext(t *testing.T) {
	ctx := context.Background()
	if GetChannelContext(ctx) != "" || GetRolesContext(ctx) != nil {
		t.Fatal("expected empty channel and roles from fresh context")
	}

	ctx = SetChannelContext(ctx, "general")
	ctx = SetRolesContext(ctx, []string{"staff", "vip"})

	if got := GetChannelContext(ctx); got != "general" {
		t.Errorf("expected channel 'general', got %q", got)
	}
	if got := GetRolesContext(ctx); len(got) != 2 || got[0] != "staff" {
		t.Errorf("unexpected roles %v", got)
	}
}

func TestKeysDoNotCollide(t *testing.T) {
	ctx := SetUserContext(context.Background(), "same")
	if GetChannelContext(ctx) != "" {
		t.Error("user id leaked into channel key")
	}
}
