package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/mogudian/elasticsearch-orm/internal/common"
)

type staticVerifier map[string]string

func (s staticVerifier) Verify(_ context.Context, raw string) (json.RawMessage, error) {
	claims, ok := s[raw]
	if !ok {
		return nil, errors.New("signature mismatch")
	}
	return json.RawMessage(claims), nil
}

func protected(o *OIDC) http.Handler {
	return o.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := FromContext(r)
		sub, _ := c.GetString("sub")
		at, _ := IssuedAtFromContext(r)
		w.Header().Set("X-Subject", sub)
		w.Header().Set("X-Issued-At", at.UTC().Format("2006-01-02"))
		w.WriteHeader(http.StatusNoContent)
	}))
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/compile", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	o := &OIDC{
		verifier: staticVerifier{
			"good":     `{"sub":"alice","scope":"profile compile","iat":1704067200}`,
			"no-scope": `{"sub":"bob","scope":"profile"}`,
			"refresh":  `{"sub":"carol","typ":"Refresh","scope":"compile"}`,
		},
		scopes: []string{"compile"},
	}
	h := protected(o)

	rec := serve(h, "good")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "alice", rec.Header().Get("X-Subject"))
	require.Equal(t, "2024-01-01", rec.Header().Get("X-Issued-At"))

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"bad signature", "forged", http.StatusUnauthorized},
		{"wrong type", "refresh", http.StatusUnauthorized},
		{"missing scope", "no-scope", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.token)
			require.Equal(t, tt.want, rec.Code)
			require.Contains(t, rec.Body.String(), `"messages"`)
		})
	}
}

func TestHasAllScopes(t *testing.T) {
	t.Parallel()
	c := Claims{"scope": "profile email"}
	require.True(t, hasAllScopes(c, nil))
	require.True(t, hasAllScopes(c, []string{"email"}))
	require.False(t, hasAllScopes(c, []string{"email", "admin"}))
	require.False(t, hasAllScopes(Claims{}, []string{"email"}))
}

func TestSetupSecurityDisabled(t *testing.T) {
	t.Parallel()
	r := chi.NewRouter()
	require.NoError(t, SetupSecurity(context.Background(), &common.Config{}, r))
	r.Get("/open", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
