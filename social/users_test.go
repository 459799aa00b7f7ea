package social_test

import (
	"context"
	"testing"

	"github.com/lucidfort/snapgram/social"
)

func TestUserService_CreateValidates(t *testing.T) {
	tests := []struct {
		name string
		in   social.NewUser
		kind social.Kind
	}{
		{name: "bad email", in: social.NewUser{Name: "Bob", Username: "bob", Email: "not-an-email"}, kind: social.KindValidationFailure},
		{name: "missing name", in: social.NewUser{Username: "bob", Email: "bob@example.com"}, kind: social.KindValidationFailure},
		{name: "taken username", in: social.NewUser{Name: "Ada Again", Username: "ada", Email: "ada2@example.com"}, kind: social.KindValidationFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			_, err := e.services.Users.Create(context.Background(), tt.in)
			if got := social.KindOf(err); got != tt.kind {
				t.Errorf("expected kind %s, got %s (%v)", tt.kind, got, err)
			}
		})
	}
}

func TestUserService_CurrentAndUpdate(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	if _, err := e.services.Users.Current(ctx, social.Session{}); social.KindOf(err) != social.KindPermissionDenied {
		t.Errorf("expected permission denied without a session, got %v", err)
	}

	me, err := e.services.Users.Current(ctx, social.Session{UserID: "U3"})
	if err != nil {
		t.Fatalf("Current() failed: %v", err)
	}
	if me.Username != "alan" {
		t.Errorf("unexpected user: %+v", me)
	}

	updated, err := e.services.Users.Update(ctx, social.UpdateUser{UserID: "U3", Name: "Alan M. Turing", Bio: "machines", Version: me.Version})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Name != "Alan M. Turing" || updated.Bio != "machines" || updated.Email != "alan@example.com" {
		t.Errorf("unexpected user after update: %+v", updated)
	}

	list, err := e.services.Users.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(list.Documents) != 2 || list.Total != 3 {
		t.Errorf("expected 2 of 3 users, got %d of %d", len(list.Documents), list.Total)
	}
}

func TestNotificationService_RejectsSelfNotification(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.services.Notifications.Create(ctx, social.NewNotification{Type: social.NotifyComment, TargetID: "U1", UserID: "U1"})
	if social.KindOf(err) != social.KindValidationFailure {
		t.Errorf("expected validation failure, got %v", err)
	}

	for _, actor := range []string{"U2", "U3"} {
		if _, err := e.services.Notifications.Create(ctx, social.NewNotification{Type: social.NotifyFollow, TargetID: "U1", UserID: actor}); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	page, err := e.services.Notifications.List(ctx, "U1")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if page.Total != 2 || page.Documents[0].UserID != "U3" {
		t.Errorf("expected newest first, got %+v", page.Documents)
	}
}
