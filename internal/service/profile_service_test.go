package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestProfileServiceUpdate(t *testing.T) {
	gdb := setupServiceDB(t)
	user := createTestUser(t, gdb, "diver@example.com")
	svc := NewProfileService(gdb, newMemoryBlobStore(), nil)

	if user.Nickname != "diver" {
		t.Fatalf("expected nickname from email, got %s", user.Nickname)
	}

	updated, err := svc.Update(user.ID, ProfileInput{Nickname: stringPtr("  바다거북 "), Bio: stringPtr("프리다이버"), IsPublic: boolPtr(true), Language: stringPtr("en-US")})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Nickname != "바다거북" || updated.Bio != "프리다이버" || !updated.IsPublic || updated.Language != "en" {
		t.Fatalf("unexpected profile %+v", updated)
	}

	partial, err := svc.Update(user.ID, ProfileInput{IsPublic: boolPtr(false)})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if partial.Nickname != "바다거북" || partial.IsPublic {
		t.Fatalf("expected only is_public to change, got %+v", partial)
	}

	cases := []ProfileInput{
		{Nickname: stringPtr("   ")},
		{Nickname: stringPtr(strings.Repeat("가", 41))},
		{Bio: stringPtr(strings.Repeat("b", 501))},
		{Language: stringPtr("fr")},
	}
	for i, input := range cases {
		if _, err := svc.Update(user.ID, input); !errors.Is(err, ErrProfileInvalid) {
			t.Fatalf("case %d: expected ErrProfileInvalid, got %v", i, err)
		}
	}

	if _, err := svc.Update(9999, ProfileInput{}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestProfileServiceUploadPhotoReplacesOld(t *testing.T) {
	gdb := setupServiceDB(t)
	user := createTestUser(t, gdb, "photo@example.com")
	store := newMemoryBlobStore()
	svc := NewProfileService(gdb, store, nil)
	ctx := context.Background()

	first, err := svc.UploadPhoto(ctx, user.ID, pngUpload(t, 1024, 768))
	if err != nil {
		t.Fatalf("UploadPhoto returned error: %v", err)
	}
	if !strings.HasPrefix(first.PhotoPath, "profiles/") || first.PhotoURL != "/media/"+first.PhotoPath {
		t.Fatalf("unexpected photo fields %q/%q", first.PhotoPath, first.PhotoURL)
	}
	width, height := decodeSize(t, store.objects[first.PhotoPath])
	if width != 512 || height != 384 {
		t.Fatalf("expected 512x384, got %dx%d", width, height)
	}

	second, err := svc.UploadPhoto(ctx, user.ID, pngUpload(t, 100, 100))
	if err != nil {
		t.Fatalf("UploadPhoto returned error: %v", err)
	}
	if store.Has(first.PhotoPath) {
		t.Fatal("expected old photo to be deleted")
	}
	if !store.Has(second.PhotoPath) || store.Len() != 1 {
		t.Fatalf("expected only the new photo to remain, have %d objects", store.Len())
	}

	video := MediaUpload{Filename: "a.mp4", ContentType: "video/mp4", Size: 3, Body: strings.NewReader("abc")}
	if _, err := svc.UploadPhoto(ctx, user.ID, video); !errors.Is(err, ErrMediaType) {
		t.Fatalf("expected ErrMediaType, got %v", err)
	}
}

func TestProfileServiceCertifications(t *testing.T) {
	gdb := setupServiceDB(t)
	user := createTestUser(t, gdb, "cert@example.com")
	other := createTestUser(t, gdb, "other-cert@example.com")
	store := newMemoryBlobStore()
	svc := NewProfileService(gdb, store, nil)
	ctx := context.Background()

	photo := pngUpload(t, 40, 30)
	cert, err := svc.AddCertification(ctx, user.ID, CertificationInput{Org: "padi", Level: "Rescue Diver", Date: "2023-09-10"}, &photo)
	if err != nil {
		t.Fatalf("AddCertification returned error: %v", err)
	}
	if cert.Org != "PADI" || cert.PhotoPath == "" || !strings.HasPrefix(cert.PhotoPath, "profiles/") {
		t.Fatalf("unexpected certification %+v", cert)
	}

	invalid := []CertificationInput{
		{Org: "XYZ", Level: "Instructor"},
		{Org: "CMAS", Level: "Rescue Diver"},
		{Org: "SSI", Level: "Dive Guide", Date: "10/09/2023"},
	}
	for _, input := range invalid {
		if _, err := svc.AddCertification(ctx, user.ID, input, nil); !errors.Is(err, ErrCertificationInvalid) {
			t.Fatalf("%+v: expected ErrCertificationInvalid, got %v", input, err)
		}
	}

	profile, err := svc.Get(user.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(profile.Certifications) != 1 {
		t.Fatalf("expected 1 certification, got %d", len(profile.Certifications))
	}

	if err := svc.RemoveCertification(ctx, other.ID, cert.ID); !errors.Is(err, ErrCertificationNotFound) {
		t.Fatalf("expected ErrCertificationNotFound, got %v", err)
	}
	if err := svc.RemoveCertification(ctx, user.ID, cert.ID); err != nil {
		t.Fatalf("RemoveCertification returned error: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected certification photo deleted, %d objects left", store.Len())
	}
}

func TestProfileServicePublic(t *testing.T) {
	gdb := setupServiceDB(t)
	user := createTestUser(t, gdb, "public@example.com")
	reviews := NewReviewService(gdb, newMemoryBlobStore())
	svc := NewProfileService(gdb, newMemoryBlobStore(), reviews)

	if _, err := svc.Update(user.ID, ProfileInput{Bio: stringPtr("비공개 소개")}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	hidden, err := svc.Public(user.ID)
	if err != nil {
		t.Fatalf("Public returned error: %v", err)
	}
	if hidden.IsPublic || hidden.Bio != "" || hidden.Nickname != "public" {
		t.Fatalf("expected only nickname for private profile, got %+v", hidden)
	}

	spotID := spotIDBySlug(t, gdb, "cozumel-palancar")
	for i := 0; i < 4; i++ {
		if _, err := reviews.Create(context.Background(), user.ID, "public", spotID, validReview(), nil); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}
	if _, err := svc.Update(user.ID, ProfileInput{IsPublic: boolPtr(true)}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	visible, err := svc.Public(user.ID)
	if err != nil {
		t.Fatalf("Public returned error: %v", err)
	}
	if !visible.IsPublic || visible.Bio != "비공개 소개" {
		t.Fatalf("expected public fields, got %+v", visible)
	}
	if visible.ReviewCount != 4 || len(visible.RecentReviews) != 3 {
		t.Fatalf("expected 4 reviews with 3 recent, got %d/%d", visible.ReviewCount, len(visible.RecentReviews))
	}

	if _, err := svc.Public(9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
