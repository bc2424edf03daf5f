package service

import (
	"errors"
	"testing"
)

func TestContactServiceSubmit(t *testing.T) {
	gdb := setupServiceDB(t)
	svc := NewContactService(gdb)

	message, err := svc.Submit(ContactInput{
		Name:    " 김다이버 ",
		Email:   "kim@example.com",
		Subject: "데이터 오류",
		Message: "<b>문섬</b> 수온 정보가 틀려요<script>alert(1)</script>",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if message.Status != ContactStatusUnread {
		t.Fatalf("expected unread status, got %s", message.Status)
	}
	if message.Name != "김다이버" {
		t.Fatalf("expected trimmed name, got %q", message.Name)
	}
	if message.Message != "문섬 수온 정보가 틀려요" {
		t.Fatalf("expected markup stripped, got %q", message.Message)
	}

	cases := []ContactInput{
		{Name: "", Email: "a@example.com", Message: "hi"},
		{Name: "a", Email: "not-an-email", Message: "hi"},
		{Name: "a", Email: "a@example.com", Message: "<p></p>"},
	}
	for i, input := range cases {
		if _, err := svc.Submit(input); !errors.Is(err, ErrContactInvalid) {
			t.Fatalf("case %d: expected ErrContactInvalid, got %v", i, err)
		}
	}
}
