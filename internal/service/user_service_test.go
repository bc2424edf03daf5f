package service

import (
	"errors"
	"testing"
)

func TestUserServiceRegisterAndAuthenticate(t *testing.T) {
	gdb := setupServiceDB(t)
	svc := NewUserService(gdb)

	user, err := svc.Register(" Demo@Where2Dive.com ", "1234", "")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "demo@where2dive.com" || user.Nickname != "demo" {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.Password == "1234" {
		t.Fatal("expected password to be hashed")
	}

	if _, err := svc.Register("demo@where2dive.com", "5678", ""); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if _, err := svc.Register("not-an-email", "1234", ""); !errors.Is(err, ErrInvalidUserInput) {
		t.Fatalf("expected ErrInvalidUserInput, got %v", err)
	}
	if _, err := svc.Register("short@example.com", "12", ""); !errors.Is(err, ErrInvalidUserInput) {
		t.Fatalf("expected ErrInvalidUserInput, got %v", err)
	}

	authed, err := svc.Authenticate("DEMO@where2dive.com", "1234")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, authed.ID)
	}
	if _, err := svc.Authenticate("demo@where2dive.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate("missing@where2dive.com", "1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Get(9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
