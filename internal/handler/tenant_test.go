package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/forgo/maestro/internal/model"
	"github.com/forgo/maestro/internal/service"
)

type memTenantRepo struct {
	mu      sync.Mutex
	tenants map[int]*model.Tenant
	nextID  int
}

func newMemTenantRepo() *memTenantRepo {
	return &memTenantRepo{tenants: make(map[int]*model.Tenant)}
}

func (r *memTenantRepo) Create(_ context.Context, tenant *model.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	tenant.TenantID = r.nextID
	clone := *tenant
	r.tenants[tenant.TenantID] = &clone
	return nil
}

func (r *memTenantRepo) GetByID(_ context.Context, tenantID int) (*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	clone := *tenant
	return &clone, nil
}

func (r *memTenantRepo) GetByEmail(_ context.Context, email string) (*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tenant := range r.tenants {
		if tenant.Email == email {
			clone := *tenant
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memTenantRepo) UpdateCredentials(_ context.Context, tenantID int, encrypted string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tenant, ok := r.tenants[tenantID]; ok {
		tenant.Credentials = encrypted
	}
	return nil
}

func (r *memTenantRepo) UpdateSchedulePrefs(_ context.Context, tenantID int, prefs map[string]model.SchedulePref) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tenant, ok := r.tenants[tenantID]; ok {
		tenant.SchedulePrefs = prefs
	}
	return nil
}

func tenantTestServer(t *testing.T) (*httptest.Server, *memTenantRepo) {
	t.Helper()
	repo := newMemTenantRepo()
	h := NewTenantHandler(service.NewTenantService(service.TenantServiceConfig{TenantRepo: repo}))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/tenants", h.Create)
	mux.HandleFunc("GET /v1/tenants/{tenantId}", h.Get)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, repo
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCreateTenant(t *testing.T) {
	srv, repo := tenantTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/tenants",
		`{"email": "Ada@Example.com", "name": "Ada", "password": "correct-horse"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var body struct {
		Data model.Tenant `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body.Data.Email != "ada@example.com" {
		t.Errorf("email = %q, want lowercased", body.Data.Email)
	}
	if body.Data.TenantID == 0 {
		t.Error("expected an assigned tenant id")
	}

	stored, _ := repo.GetByID(context.Background(), body.Data.TenantID)
	if stored == nil || stored.PasswordHash == "" || stored.PasswordHash == "correct-horse" {
		t.Error("expected a hashed password persisted")
	}
}

func TestCreateTenantValidation(t *testing.T) {
	srv, _ := tenantTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/tenants",
		`{"email": "not-an-email", "name": "Ada", "password": "short"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}

	var pd model.ProblemDetails
	if err := json.NewDecoder(resp.Body).Decode(&pd); err != nil {
		t.Fatalf("decoding problem details: %v", err)
	}
	if pd.Code != model.ErrCodeValidation || len(pd.Errors) != 2 {
		t.Errorf("problem = %+v, want validation code with two field errors", pd)
	}
}

func TestCreateTenantConflict(t *testing.T) {
	srv, _ := tenantTestServer(t)

	payload := `{"email": "ada@example.com", "name": "Ada", "password": "correct-horse"}`
	if resp := postJSON(t, srv.URL+"/v1/tenants", payload); resp.StatusCode != http.StatusCreated {
		t.Fatalf("first signup status = %d, want 201", resp.StatusCode)
	}

	resp := postJSON(t, srv.URL+"/v1/tenants", payload)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, want 409", resp.StatusCode)
	}
}

func TestCreateTenantRejectsUnknownFields(t *testing.T) {
	srv, _ := tenantTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/tenants",
		`{"email": "ada@example.com", "name": "Ada", "password": "correct-horse", "role": "admin"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for unknown field", resp.StatusCode)
	}
}

func TestGetTenant(t *testing.T) {
	srv, repo := tenantTestServer(t)

	tenant := &model.Tenant{Email: "ada@example.com", Name: "Ada"}
	if err := repo.Create(context.Background(), tenant); err != nil {
		t.Fatalf("seeding tenant: %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("%s/v1/tenants/%d", srv.URL, tenant.TenantID))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGetTenantNotFound(t *testing.T) {
	srv, _ := tenantTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/tenants/999")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetTenantBadID(t *testing.T) {
	srv, _ := tenantTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/tenants/abc")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
