package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tutupbuku/backend/internal/service"
	"tutupbuku/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, nil, 5*time.Second)
	auth := NewAuthManager("test-secret-key-needs-32-chars!!", time.Hour, "245736", repo)

	return New(svc, auth, "*")
}

func loginAs(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d (body: %s)", username, rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("expected access_token, got %v", body)
	}
	return token
}

func csrfToken(t *testing.T, api *API) string {
	t.Helper()
	return api.generateCSRFToken()
}

func doJSON(t *testing.T, handler http.Handler, api *API, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("X-CSRF-Token", csrfToken(t, api))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{
		"username": "staff",
		"password": "wrong",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestProductsRequireAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestProductCreateForbiddenForStaff(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "staff", "staff123")

	rec := doJSON(t, handler, api, http.MethodPost, "/api/v1/products", token, map[string]any{
		"name": "Telur", "unit": "kg", "sale_price": "28000", "opening_stock": "10",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestClosingLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "staff", "staff123")
	date := "2025-03-10"

	rec := doJSON(t, handler, api, http.MethodGet, "/api/v1/closing/"+date, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var overview map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if overview["state"] != "unset" {
		t.Fatalf("expected unset state, got %v", overview["state"])
	}

	rec = doJSON(t, handler, api, http.MethodPost, "/api/v1/closing/"+date+"/opening-cash", token, map[string]any{
		"amount": "500",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("seed: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	// Seeding twice is a conflict.
	rec = doJSON(t, handler, api, http.MethodPost, "/api/v1/closing/"+date+"/opening-cash", token, map[string]any{
		"amount": "600",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("reseed: expected 409, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	// Build a full count from the overview rows and lock.
	rec = doJSON(t, handler, api, http.MethodGet, "/api/v1/closing/"+date, token, nil)
	var seeded struct {
		Rows []struct {
			ProductID string `json:"product_id"`
			Available string `json:"available"`
		} `json:"rows"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&seeded); err != nil {
		t.Fatalf("decode seeded overview: %v", err)
	}
	remaining := make(map[string]string, len(seeded.Rows))
	for _, row := range seeded.Rows {
		remaining[row.ProductID] = row.Available
	}

	rec = doJSON(t, handler, api, http.MethodPost, "/api/v1/closing/"+date+"/lock", token, map[string]any{
		"remaining":    remaining,
		"cash_counted": "500",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("lock: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	// Locking again conflicts.
	rec = doJSON(t, handler, api, http.MethodPost, "/api/v1/closing/"+date+"/lock", token, map[string]any{
		"remaining":    remaining,
		"cash_counted": "500",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("double lock: expected 409, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, api, http.MethodPost, "/api/v1/closing/"+date+"/next-day-opening-cash", token, map[string]any{
		"amount": "500",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("handoff: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestLockRejectsIncompleteCount(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "staff", "staff123")
	date := "2025-03-12"

	rec := doJSON(t, handler, api, http.MethodPost, "/api/v1/closing/"+date+"/opening-cash", token, map[string]any{
		"amount": "100",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("seed: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, handler, api, http.MethodPost, "/api/v1/closing/"+date+"/lock", token, map[string]any{
		"cash_counted": "100",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for incomplete count, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestReverseRequiresManagerPIN(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "staff", "staff123")

	rec := doJSON(t, handler, api, http.MethodPost, "/api/v1/stock-movements", token, map[string]any{
		"product_id": "prd-kopi", "date": "2025-03-10", "qty": "4",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("record: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id, _ := created["id"].(string)

	rec = doJSON(t, handler, api, http.MethodPost, fmt.Sprintf("/api/v1/stock-movements/%s/reverse", id), token, map[string]any{
		"reason": "typo", "manager_pin": "000000",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong PIN, got %d", rec.Code)
	}

	rec = doJSON(t, handler, api, http.MethodPost, fmt.Sprintf("/api/v1/stock-movements/%s/reverse", id), token, map[string]any{
		"reason": "typo", "manager_pin": "245736",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 with valid PIN, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	// The outstanding listing drops both the original and its reversal.
	rec = doJSON(t, handler, api, http.MethodGet, "/api/v1/stock-movements?date=2025-03-10&outstanding=true", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list outstanding: expected 200, got %d", rec.Code)
	}
	var listing struct {
		Movements []map[string]any `json:"movements"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Movements) != 0 {
		t.Fatalf("expected empty outstanding listing, got %d entries", len(listing.Movements))
	}
}

func TestMutationRequiresCSRFToken(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "staff", "staff123")

	payload, _ := json.Marshal(map[string]any{
		"product_id": "prd-kopi", "qty": "1",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stock-movements", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without CSRF token, got %d", rec.Code)
	}
}

func TestAuditLogsAdminOnly(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	staffToken := loginAs(t, handler, "staff", "staff123")
	rec := doJSON(t, handler, api, http.MethodGet, "/api/v1/audit-logs", staffToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff, got %d", rec.Code)
	}

	adminToken := loginAs(t, handler, "admin", "admin123")
	rec = doJSON(t, handler, api, http.MethodGet, "/api/v1/audit-logs", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}
