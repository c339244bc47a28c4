package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mestresdocafe/backend/internal/infrastructure/auth"
	"github.com/mestresdocafe/backend/internal/infrastructure/config"
	"github.com/mestresdocafe/backend/internal/infrastructure/logger"
	"github.com/mestresdocafe/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-at-least-32-characters!"

func newTokenService() *auth.TokenService {
	return auth.NewTokenService(config.JWTConfig{
		Secret:          testSecret,
		Issuer:          "mestresdocafe-test",
		TokenExpiration: time.Hour,
	})
}

func authRouter(cfg AuthConfig, handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Auth(cfg))
	chain := append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tenant":     GetTenantID(c),
			"ctx_tenant": logger.GetTenantID(c.Request.Context()),
		})
	})
	router.GET("/api/v1/fiscal/quote", chain...)
	router.GET("/api/v1/fiscal/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func bearer(t *testing.T, tokens *auth.TokenService, tenantID uuid.UUID, scopes ...string) (string, *auth.IssuedToken) {
	t.Helper()
	issued, err := tokens.Issue(auth.IssueInput{TenantID: tenantID, Subject: "storefront", Scopes: scopes})
	require.NoError(t, err)
	return "Bearer " + issued.Token, issued
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestAuth_ValidToken(t *testing.T) {
	tokens := newTokenService()
	tenantID := uuid.New()
	header, _ := bearer(t, tokens, tenantID, auth.ScopeRead)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fiscal/quote", nil)
	req.Header.Set(AuthHeaderKey, header)
	w := httptest.NewRecorder()
	authRouter(AuthConfig{Tokens: tokens}).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, tenantID.String(), body["tenant"])
	assert.Equal(t, tenantID.String(), body["ctx_tenant"])
}

func TestAuth_Rejections(t *testing.T) {
	tokens := newTokenService()
	other := auth.NewTokenService(config.JWTConfig{Secret: "another-secret-with-32-characters!!!", Issuer: "mestresdocafe-test"})
	foreign, err := other.Issue(auth.IssueInput{TenantID: uuid.New()})
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		tenant   string
		wantCode string
	}{
		{name: "missing header", wantCode: dto.ErrCodeTokenInvalid},
		{name: "not a bearer token", header: "Basic dXNlcjpwYXNz", wantCode: dto.ErrCodeTokenInvalid},
		{name: "empty bearer", header: "Bearer ", wantCode: dto.ErrCodeTokenInvalid},
		{name: "garbage token", header: "Bearer not.a.jwt", wantCode: dto.ErrCodeTokenInvalid},
		{name: "foreign signature", header: "Bearer " + foreign.Token, wantCode: dto.ErrCodeTokenInvalid},
		{name: "tenant header ignored when fallback is off", tenant: uuid.NewString(), wantCode: dto.ErrCodeTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/fiscal/quote", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			if tt.tenant != "" {
				req.Header.Set(HeaderTenantID, tt.tenant)
			}
			w := httptest.NewRecorder()
			authRouter(AuthConfig{Tokens: tokens}).ServeHTTP(w, req)

			require.Equal(t, http.StatusUnauthorized, w.Code)
			info := decodeError(t, w)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.RequestID)
		})
	}
}

func TestAuth_SkipPaths(t *testing.T) {
	w := httptest.NewRecorder()
	router := authRouter(AuthConfig{Tokens: newTokenService(), SkipPaths: []string{"/api/v1/fiscal/health"}})
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/fiscal/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_TenantHeaderFallback(t *testing.T) {
	router := authRouter(AuthConfig{Tokens: newTokenService(), AllowTenantHeader: true})

	t.Run("valid tenant header", func(t *testing.T) {
		tenantID := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/fiscal/quote", nil)
		req.Header.Set(HeaderTenantID, tenantID)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), tenantID)
	})

	t.Run("malformed tenant header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/fiscal/quote", nil)
		req.Header.Set(HeaderTenantID, "loja-centro")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, decodeError(t, w).Code)
	})

	t.Run("neither token nor header", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/fiscal/quote", nil))

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeNoTenant, decodeError(t, w).Code)
	})
}

func TestAuth_Revocation(t *testing.T) {
	ctx := context.Background()
	tokens := newTokenService()
	tenantID := uuid.New()

	t.Run("revoked token", func(t *testing.T) {
		revocations := auth.NewInMemoryRevocationList()
		header, issued := bearer(t, tokens, tenantID, auth.ScopeRead)
		require.NoError(t, revocations.RevokeToken(ctx, issued.ID, time.Hour))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/fiscal/quote", nil)
		req.Header.Set(AuthHeaderKey, header)
		w := httptest.NewRecorder()
		authRouter(AuthConfig{Tokens: tokens, Revocations: revocations}).ServeHTTP(w, req)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenRevoked, decodeError(t, w).Code)
	})

	t.Run("other tokens of the tenant still pass", func(t *testing.T) {
		revocations := auth.NewInMemoryRevocationList()
		_, revoked := bearer(t, tokens, tenantID)
		require.NoError(t, revocations.RevokeToken(ctx, revoked.ID, time.Hour))
		header, _ := bearer(t, tokens, tenantID)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/fiscal/quote", nil)
		req.Header.Set(AuthHeaderKey, header)
		w := httptest.NewRecorder()
		authRouter(AuthConfig{Tokens: tokens, Revocations: revocations}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireScope(t *testing.T) {
	tokens := newTokenService()
	tenantID := uuid.New()

	tests := []struct {
		name       string
		scopes     []string
		wantStatus int
	}{
		{"write scope", []string{auth.ScopeWrite}, http.StatusOK},
		{"read only", []string{auth.ScopeRead}, http.StatusForbidden},
		{"no scopes", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, _ := bearer(t, tokens, tenantID, tt.scopes...)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/fiscal/quote", nil)
			req.Header.Set(AuthHeaderKey, header)
			w := httptest.NewRecorder()
			authRouter(AuthConfig{Tokens: tokens}, RequireScope(auth.ScopeWrite)).ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, w).Code)
			}
		})
	}

	t.Run("tenant header callers pass", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/fiscal/quote", nil)
		req.Header.Set(HeaderTenantID, tenantID.String())
		w := httptest.NewRecorder()
		authRouter(AuthConfig{Tokens: tokens, AllowTenantHeader: true}, RequireScope(auth.ScopeWrite)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
