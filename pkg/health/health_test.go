package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func passing(ctx context.Context) error { return nil }

func failing(err error) CheckFunc {
	return func(ctx context.Context) error { return err }
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()

		h := ReadinessHandler(Checks{"db": passing})

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("gating failure returns 503", func(t *testing.T) {
		t.Parallel()

		h := ReadinessHandler(Checks{"db": failing(errors.New("down"))})

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("informational failure degrades but stays ready", func(t *testing.T) {
		t.Parallel()

		h := ReadinessHandler(
			Checks{"db": passing},
			WithInformational(Checks{"cache": failing(errors.New("redis unreachable"))}),
		)

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/readyz?format=json", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, StatusDegraded, resp.Status)
		require.Equal(t, StatusUnhealthy, resp.Checks["cache"].Status)
		require.Equal(t, StatusHealthy, resp.Checks["db"].Status)
	})

	t.Run("json body lists each check", func(t *testing.T) {
		t.Parallel()

		h := ReadinessHandler(Checks{
			"db":    passing,
			"queue": failing(errors.New("no broker")),
		})

		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		req.Header.Set("Accept", "application/json")

		rec := httptest.NewRecorder()
		h(rec, req)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, StatusUnhealthy, resp.Status)
		require.Equal(t, "no broker", resp.Checks["queue"].Error)
	})
}
