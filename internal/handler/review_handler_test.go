package handler

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"testing"
)

type reviewResponse struct {
	Review struct {
		ID          uint   `json:"id"`
		Nickname    string `json:"nickname"`
		Rating      int    `json:"rating"`
		ContentHTML string `json:"contentHtml"`
		IsMine      bool   `json:"isMine"`
		Media       []struct {
			ID   uint   `json:"id"`
			Kind string `json:"kind"`
			URL  string `json:"url"`
		} `json:"media"`
	} `json:"review"`
	Unlocked []string `json:"unlocked"`
}

func TestCreateReviewWithMedia(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	client := env.client(t)
	client.register(t, "reviewer@example.com")
	spotID := spotIDBySlug(t, env.db, "jeju-munseom")

	rr := client.multipart(t, http.MethodPost, fmt.Sprintf("/api/spots/%d/reviews", spotID), map[string][]string{
		"rating":    {"5"},
		"title":     {"Soft coral heaven"},
		"content":   {"**Great** visibility <script>alert(1)</script>"},
		"visitDate": {"2024-06-01"},
	}, multipartFile{field: "media", filename: "reef.png", contentType: "image/png", data: pngBytes(t, 10, 10)})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created reviewResponse
	decodeJSON(t, rr, &created)
	if created.Review.Nickname != "Diver" || created.Review.Rating != 5 || !created.Review.IsMine {
		t.Fatalf("unexpected review %+v", created.Review)
	}
	if !strings.Contains(created.Review.ContentHTML, "<strong>Great</strong>") || strings.Contains(created.Review.ContentHTML, "<script>") {
		t.Fatalf("expected sanitized markdown, got %q", created.Review.ContentHTML)
	}
	if len(created.Review.Media) != 1 || created.Review.Media[0].Kind != "image" ||
		!strings.HasPrefix(created.Review.Media[0].URL, fmt.Sprintf("/static/uploads/reviews/%d/", created.Review.ID)) {
		t.Fatalf("unexpected media %+v", created.Review.Media)
	}
	if !slices.Equal(created.Unlocked, []string{"reviewer"}) {
		t.Fatalf("expected reviewer unlock, got %v", created.Unlocked)
	}

	rr = env.client(t).json(t, http.MethodGet, fmt.Sprintf("/api/spots/%d/reviews", spotID), nil)
	var list struct {
		Reviews []struct {
			IsMine bool `json:"isMine"`
		} `json:"reviews"`
		Average float64 `json:"average"`
		Count   int     `json:"count"`
	}
	decodeJSON(t, rr, &list)
	if list.Count != 1 || list.Average != 5 || list.Reviews[0].IsMine {
		t.Fatalf("unexpected anonymous listing %+v", list)
	}
}

func TestReviewValidationAndOwnership(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	author := env.client(t)
	author.register(t, "author@example.com")
	spotID := spotIDBySlug(t, env.db, "cozumel-palancar")
	path := fmt.Sprintf("/api/spots/%d/reviews", spotID)

	rr := author.json(t, http.MethodPost, path, map[string]any{"rating": 6, "title": "Too good", "content": "wow"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for rating 6, got %d", rr.Code)
	}

	rr = author.multipart(t, http.MethodPost, path, map[string][]string{
		"rating": {"4"}, "title": {"Docs"}, "content": {"attached"},
	}, multipartFile{field: "media", filename: "notes.pdf", contentType: "application/pdf", data: []byte("%PDF")})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for pdf upload, got %d", rr.Code)
	}

	rr = author.json(t, http.MethodPost, "/api/spots/99999/reviews", map[string]any{"rating": 4, "title": "Ghost", "content": "none"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown spot, got %d", rr.Code)
	}

	rr = author.json(t, http.MethodPost, path, map[string]any{"rating": 4, "title": "Drift", "content": "Strong current"})
	var created reviewResponse
	decodeJSON(t, rr, &created)

	other := env.client(t)
	other.register(t, "other-reviewer@example.com")
	reviewPath := fmt.Sprintf("/api/reviews/%d", created.Review.ID)
	rr = other.json(t, http.MethodPut, reviewPath, map[string]any{"rating": 1, "title": "Mine now", "content": "no"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign edit, got %d", rr.Code)
	}
	if rr := other.json(t, http.MethodDelete, reviewPath, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign delete, got %d", rr.Code)
	}

	rr = author.json(t, http.MethodPut, reviewPath, map[string]any{"rating": 2, "title": "Drift", "content": "Too strong"})
	var updated reviewResponse
	decodeJSON(t, rr, &updated)
	if updated.Review.Rating != 2 {
		t.Fatalf("expected rating 2 after update, got %d", updated.Review.Rating)
	}

	if rr := author.json(t, http.MethodDelete, reviewPath, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}

func TestUpdateReviewRemovesMedia(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	client := env.client(t)
	client.register(t, "media@example.com")
	spotID := spotIDBySlug(t, env.db, "okinawa-blue-cave")

	rr := client.multipart(t, http.MethodPost, fmt.Sprintf("/api/spots/%d/reviews", spotID), map[string][]string{
		"rating": {"4"}, "title": {"Blue light"}, "content": {"Bright cave"},
	},
		multipartFile{field: "media", filename: "a.png", contentType: "image/png", data: pngBytes(t, 4, 4)},
		multipartFile{field: "media", filename: "b.png", contentType: "image/png", data: pngBytes(t, 4, 4)},
	)
	var created reviewResponse
	decodeJSON(t, rr, &created)
	if len(created.Review.Media) != 2 {
		t.Fatalf("expected two media items, got %d", len(created.Review.Media))
	}

	removeID := created.Review.Media[0].ID
	rr = client.multipart(t, http.MethodPut, fmt.Sprintf("/api/reviews/%d", created.Review.ID), map[string][]string{
		"rating": {"4"}, "title": {"Blue light"}, "content": {"Bright cave"},
		"removeMedia": {fmt.Sprint(removeID)},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var updated reviewResponse
	decodeJSON(t, rr, &updated)
	if len(updated.Review.Media) != 1 || updated.Review.Media[0].ID == removeID {
		t.Fatalf("expected media %d to be removed, got %+v", removeID, updated.Review.Media)
	}
}

func TestDeleteReviewLowersProgress(t *testing.T) {
	env := newHandlerEnv(t, Options{})
	client := env.client(t)
	client.register(t, "delete-review@example.com")
	spotID := spotIDBySlug(t, env.db, "cozumel-palancar")

	rr := client.json(t, http.MethodPost, fmt.Sprintf("/api/spots/%d/reviews", spotID), map[string]any{"rating": 5, "title": "Wall", "content": "Endless wall"})
	var created reviewResponse
	decodeJSON(t, rr, &created)
	if !slices.Equal(created.Unlocked, []string{"reviewer"}) {
		t.Fatalf("expected reviewer unlock, got %v", created.Unlocked)
	}
	if popular := achievementByID(t, client, "popularReviewer"); popular.Progress != 1 {
		t.Fatalf("expected popularReviewer at 1, got %+v", popular)
	}

	if rr := client.json(t, http.MethodDelete, fmt.Sprintf("/api/reviews/%d", created.Review.ID), nil); rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	env.api.Achievements().Wait()

	if popular := achievementByID(t, client, "popularReviewer"); popular.Progress != 0 || popular.Percent != 0 {
		t.Fatalf("expected popularReviewer to drop to 0, got %+v", popular)
	}
	if reviewer := achievementByID(t, client, "reviewer"); !reviewer.Unlocked {
		t.Fatalf("reviewer must stay unlocked, got %+v", reviewer)
	}
}
