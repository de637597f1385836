package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"mesarpg/internal/pkg/middleware"
)

func TestRequestID_GeraIDEPropagaNoContexto(t *testing.T) {
	var idNoContexto string
	var presente bool

	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idNoContexto, presente = middleware.GetRequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.True(t, presente)
	assert.NotEmpty(t, idNoContexto)
	assert.Equal(t, idNoContexto, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_PreservaIDDoCliente(t *testing.T) {
	var idNoContexto string

	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idNoContexto, _ = middleware.GetRequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", idNoContexto)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
