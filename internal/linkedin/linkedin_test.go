package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/forgo/maestro/internal/model"
)

type staticTokens struct{ token string }

func (s staticTokens) GetValidToken(context.Context, int, model.Provider) (*model.Token, error) {
	return &model.Token{AccessToken: s.token, Expiry: time.Now().Add(time.Hour)}, nil
}

func linkedinServer(t *testing.T) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var posts []map[string]any
	mux := http.NewServeMux()

	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer li-tok" {
			t.Errorf("Authorization = %q, want Bearer li-tok", got)
		}
		fmt.Fprint(w, `{"sub": "abc123"}`)
	})

	mux.HandleFunc("POST /ugcPosts", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding post payload: %v", err)
		}
		posts = append(posts, payload)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": "urn:li:ugcPost:42"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &posts
}

func TestRunPublishesComposedPost(t *testing.T) {
	srv, posts := linkedinServer(t)

	runner := NewContentRunner(ContentRunnerConfig{
		Tokens:  staticTokens{token: "li-tok"},
		BaseURL: srv.URL,
		Composer: ComposerFunc(func(context.Context, int) (string, error) {
			return "hello network", nil
		}),
	})

	result, err := runner.Run(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(result, "urn:li:ugcPost:42") {
		t.Errorf("result = %q, want the created post id", result)
	}

	if len(*posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(*posts))
	}
	payload := (*posts)[0]
	if payload["author"] != "urn:li:person:abc123" {
		t.Errorf("author = %v, want resolved member urn", payload["author"])
	}
	if payload["lifecycleState"] != "PUBLISHED" {
		t.Errorf("lifecycleState = %v, want PUBLISHED", payload["lifecycleState"])
	}
}

func TestRunComposerFailure(t *testing.T) {
	srv, _ := linkedinServer(t)

	runner := NewContentRunner(ContentRunnerConfig{
		Tokens:  staticTokens{token: "li-tok"},
		BaseURL: srv.URL,
		Composer: ComposerFunc(func(context.Context, int) (string, error) {
			return "", fmt.Errorf("no content today")
		}),
	})

	if _, err := runner.Run(context.Background(), 1, 7); err == nil {
		t.Fatal("Run() error = nil, want composer failure")
	}
}

func TestRunSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "token revoked"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	runner := NewContentRunner(ContentRunnerConfig{
		Tokens:  staticTokens{token: "li-tok"},
		BaseURL: srv.URL,
	})

	_, err := runner.Run(context.Background(), 1, 7)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("error = %v, want 401 surfaced", err)
	}
}
