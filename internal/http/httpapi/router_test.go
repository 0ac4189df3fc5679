package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mixmind/internal/adapter/repo"
	"mixmind/internal/entitlement"
	"mixmind/internal/http/handlers"
	"mixmind/internal/infra"
	"mixmind/internal/middleware"
)

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &infra.Config{
		AppEnv:             "test",
		JWTSecret:          testSecret,
		CORSOrigins:        []string{"http://localhost:19006"},
		RateLimitPerMin:    10000,
		FreeWeeklyGrant:    2,
		FreeFavoritesLimit: 3,
	}
	logger := zerolog.Nop()
	store := entitlement.NewStore(repo.NewMemoryProfileRepository(), logger, 0)
	meter := entitlement.NewMeter(store, cfg.FreeWeeklyGrant, cfg.FreeFavoritesLimit)
	reconciler := entitlement.NewReconciler(store, logger)
	app := handlers.NewApp(store, meter, reconciler, logger)
	return NewRouter(app, cfg, logger, nil)
}

func bearerToken(t *testing.T, sub, role string) string {
	t.Helper()
	token, err := middleware.SignJWT(testSecret, middleware.TokenClaims{
		Sub:  sub,
		Role: role,
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("SignJWT() error: %v", err)
	}
	return "Bearer " + token
}

func doRequest(t *testing.T, router http.Handler, method, path, token, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthzIsOpen(t *testing.T) {
	router := newTestRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/v1/healthz", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t)
	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/v1/accounts"},
		{http.MethodGet, "/v1/accounts/acct-1"},
		{http.MethodGet, "/v1/accounts/acct-1/quota"},
		{http.MethodPost, "/v1/purchases"},
	}
	for _, tc := range tests {
		rec := doRequest(t, router, tc.method, tc.path, "", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s status = %d without token, want 401", tc.method, tc.path, rec.Code)
		}
	}
}

func TestAccountLifecycle(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "acct-1", "")

	rec := doRequest(t, router, http.MethodPost, "/v1/accounts", token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("account create status = %d: %s", rec.Code, rec.Body.String())
	}
	var profile struct {
		AccountID         string `json:"account_id"`
		IsPremium         bool   `json:"is_premium"`
		MeteredUsageCount int    `json:"metered_usage_count"`
	}
	decodeBody(t, rec, &profile)
	if profile.AccountID != "acct-1" || profile.IsPremium || profile.MeteredUsageCount != 0 {
		t.Fatalf("created profile = %+v", profile)
	}

	// Re-posting signup is a no-op.
	rec = doRequest(t, router, http.MethodPost, "/v1/accounts", token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat create status = %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/accounts/acct-1", token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("account get status = %d", rec.Code)
	}
}

func TestAccountGetMissingProfile(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "ghost", "")
	rec := doRequest(t, router, http.MethodGet, "/v1/accounts/ghost", token, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing profile status = %d, want 404", rec.Code)
	}
}

func TestCrossAccountAccess(t *testing.T) {
	router := newTestRouter(t)
	owner := bearerToken(t, "acct-1", "")
	if rec := doRequest(t, router, http.MethodPost, "/v1/accounts", owner, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("account create status = %d", rec.Code)
	}

	intruder := bearerToken(t, "acct-2", "")
	rec := doRequest(t, router, http.MethodGet, "/v1/accounts/acct-1", intruder, "", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-account get status = %d, want 403", rec.Code)
	}

	admin := bearerToken(t, "support-1", middleware.RoleAdmin)
	rec = doRequest(t, router, http.MethodGet, "/v1/accounts/acct-1", admin, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin get status = %d, want 200", rec.Code)
	}
}

type quotaBody struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
	Message   string `json:"message"`
}

func TestQuotaLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "acct-1", "")
	if rec := doRequest(t, router, http.MethodPost, "/v1/accounts", token, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("account create status = %d", rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/v1/accounts/acct-1/quota", token, "", nil)
	var quota quotaBody
	decodeBody(t, rec, &quota)
	if !quota.Allowed || quota.Remaining != 2 || quota.Unlimited {
		t.Fatalf("fresh quota = %+v, want allowed with 2 remaining", quota)
	}

	for i := 0; i < 2; i++ {
		rec = doRequest(t, router, http.MethodPost, "/v1/accounts/acct-1/consumptions", token, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("consumption status = %d", rec.Code)
		}
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/accounts/acct-1/quota", token, "", nil)
	quota = quotaBody{}
	decodeBody(t, rec, &quota)
	if quota.Allowed || quota.Remaining != 0 {
		t.Fatalf("exhausted quota = %+v, want denied with 0 remaining", quota)
	}
	if !strings.Contains(quota.Message, "limit reached") {
		t.Fatalf("denied message = %q, want English denial", quota.Message)
	}

	// Locale header switches the advisory message, not the decision.
	rec = doRequest(t, router, http.MethodGet, "/v1/accounts/acct-1/quota", token, "", map[string]string{"X-Locale": "id"})
	quota = quotaBody{}
	decodeBody(t, rec, &quota)
	if quota.Allowed {
		t.Fatalf("locale flipped the quota decision: %+v", quota)
	}
	if !strings.Contains(quota.Message, "Batas gratis") {
		t.Fatalf("denied message = %q, want Indonesian denial", quota.Message)
	}
}

func TestQuotaUnlimitedAfterPurchase(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "acct-1", "")
	if rec := doRequest(t, router, http.MethodPost, "/v1/accounts", token, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("account create status = %d", rec.Code)
	}

	purchase := `{"event":{"transaction_id":"tx-1","product_id":"premium_monthly","purchased_at":"2026-08-01T00:00:00Z"}}`
	rec := doRequest(t, router, http.MethodPost, "/v1/purchases", token, purchase, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("purchase status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/accounts/acct-1/quota", token, "", nil)
	var quota quotaBody
	decodeBody(t, rec, &quota)
	if !quota.Allowed || !quota.Unlimited || quota.Remaining != entitlement.QuotaUnlimited {
		t.Fatalf("premium quota = %+v, want unlimited", quota)
	}
}

func TestFavoritesGateFlipsWithPremium(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "acct-1", "")
	if rec := doRequest(t, router, http.MethodPost, "/v1/accounts", token, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("account create status = %d", rec.Code)
	}

	for i := 0; i < 3; i++ {
		rec := doRequest(t, router, http.MethodPost, "/v1/accounts/acct-1/favorites", token, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("favorite add status = %d", rec.Code)
		}
	}

	rec := doRequest(t, router, http.MethodGet, "/v1/accounts/acct-1/favorites/allowance", token, "", nil)
	var allowance struct {
		Allowed bool `json:"allowed"`
	}
	decodeBody(t, rec, &allowance)
	if allowance.Allowed {
		t.Fatalf("allowance at free cap = true, want false")
	}

	purchase := `{"event":{"transaction_id":"tx-1","product_id":"premium_monthly","purchased_at":"2026-08-01T00:00:00Z"}}`
	if rec := doRequest(t, router, http.MethodPost, "/v1/purchases", token, purchase, nil); rec.Code != http.StatusOK {
		t.Fatalf("purchase status = %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/v1/accounts/acct-1/favorites/allowance", token, "", nil)
	allowance.Allowed = false
	decodeBody(t, rec, &allowance)
	if !allowance.Allowed {
		t.Fatalf("allowance after upgrade = false, want true")
	}

	// Removal floors at zero and never errors.
	for i := 0; i < 5; i++ {
		if rec := doRequest(t, router, http.MethodDelete, "/v1/accounts/acct-1/favorites", token, "", nil); rec.Code != http.StatusOK {
			t.Fatalf("favorite delete status = %d", rec.Code)
		}
	}
}

func TestPurchaseRedelivery(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "acct-1", "")
	if rec := doRequest(t, router, http.MethodPost, "/v1/accounts", token, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("account create status = %d", rec.Code)
	}

	purchase := `{"event":{"transaction_id":"tx-1","product_id":"premium_monthly","purchased_at":"2026-08-01T00:00:00Z"}}`
	var result struct {
		Applied bool `json:"applied"`
	}

	rec := doRequest(t, router, http.MethodPost, "/v1/purchases", token, purchase, nil)
	decodeBody(t, rec, &result)
	if !result.Applied {
		t.Fatalf("first delivery applied = false, want true")
	}

	rec = doRequest(t, router, http.MethodPost, "/v1/purchases", token, purchase, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("redelivery status = %d, want 200", rec.Code)
	}
	decodeBody(t, rec, &result)
	if result.Applied {
		t.Fatalf("redelivery applied = true, want false")
	}
}

func TestPurchaseMalformedEvent(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "acct-1", "")
	if rec := doRequest(t, router, http.MethodPost, "/v1/accounts", token, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("account create status = %d", rec.Code)
	}

	purchase := `{"event":{"transaction_id":"","product_id":"premium_monthly","purchased_at":"2026-08-01T00:00:00Z"}}`
	rec := doRequest(t, router, http.MethodPost, "/v1/purchases", token, purchase, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed purchase status = %d, want 400", rec.Code)
	}
}

func TestPurchaseCrossAccount(t *testing.T) {
	router := newTestRouter(t)
	owner := bearerToken(t, "acct-1", "")
	if rec := doRequest(t, router, http.MethodPost, "/v1/accounts", owner, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("account create status = %d", rec.Code)
	}

	purchase := `{"account_id":"acct-1","event":{"transaction_id":"tx-1","product_id":"premium_monthly","purchased_at":"2026-08-01T00:00:00Z"}}`
	intruder := bearerToken(t, "acct-2", "")
	rec := doRequest(t, router, http.MethodPost, "/v1/purchases", intruder, purchase, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cross-account purchase status = %d, want 403", rec.Code)
	}

	// Billing integrations post with the admin role on behalf of accounts.
	billing := bearerToken(t, "billing-hook", middleware.RoleAdmin)
	rec = doRequest(t, router, http.MethodPost, "/v1/purchases", billing, purchase, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("billing purchase status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestPurchaseRestoreSweep(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "acct-1", "")
	if rec := doRequest(t, router, http.MethodPost, "/v1/accounts", token, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("account create status = %d", rec.Code)
	}

	restore := `{"events":[
		{"transaction_id":"tx-1","product_id":"premium_monthly","purchased_at":"2026-07-01T00:00:00Z"},
		{"transaction_id":"tx-2","product_id":"premium_yearly","purchased_at":"2026-08-01T00:00:00Z"},
		{"transaction_id":"tx-1","product_id":"premium_monthly","purchased_at":"2026-07-01T00:00:00Z"}
	]}`
	rec := doRequest(t, router, http.MethodPost, "/v1/purchases/restore", token, restore, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore status = %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		AppliedCount int `json:"applied_count"`
		Profile      struct {
			IsPremium         bool `json:"is_premium"`
			ActiveEntitlement *struct {
				ProductID string `json:"product_id"`
			} `json:"active_entitlement"`
		} `json:"profile"`
	}
	decodeBody(t, rec, &result)
	if result.AppliedCount != 2 {
		t.Fatalf("applied_count = %d, want 2", result.AppliedCount)
	}
	if !result.Profile.IsPremium || result.Profile.ActiveEntitlement == nil || result.Profile.ActiveEntitlement.ProductID != "premium_yearly" {
		t.Fatalf("restored profile = %+v, want premium_yearly active", result.Profile)
	}
}
