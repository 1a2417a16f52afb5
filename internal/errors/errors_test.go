package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"validation maps to 400", ValidationError("bad input"), http.StatusBadRequest},
		{"not found maps to 404", NotFoundError("missing"), http.StatusNotFound},
		{"internal maps to 500", InternalError("boom", nil), http.StatusInternalServerError},
		{"unknown type maps to 500", &Error{Type: "mystery"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := InternalError("wrapper", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "root cause")
}

func TestAsStructuredError(t *testing.T) {
	structured := ValidationError("already structured")
	assert.Same(t, structured, AsStructuredError(structured))

	wrapped := AsStructuredError(fmt.Errorf("wrapped: %w", structured))
	assert.Same(t, structured, wrapped)

	plain := AsStructuredError(stderrors.New("plain"))
	assert.Equal(t, TypeInternal, plain.Type)

	assert.Nil(t, AsStructuredError(nil))
}

func TestMiddleware_ConvertsStructuredErrors(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/boom", func(c echo.Context) error {
		return ValidationError("include text or an image").WithField("field", "text")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"include text or an image","type":"validation","context":{"field":"text"}}`, rec.Body.String())
}

func TestMiddleware_PassesSuccessThrough(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/ok", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_PreservesEchoHTTPErrors(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/teapot", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	req := httptest.NewRequest(http.MethodGet, "/teapot", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
