package httptransport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func captureServer(t *testing.T) (*httptest.Server, *atomic.Pointer[http.Header]) {
	t.Helper()
	var last atomic.Pointer[http.Header]
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Clone()
		last.Store(&h)
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func do(t *testing.T, rt http.RoundTripper, req *http.Request) {
	t.Helper()
	resp, err := (&http.Client{Transport: rt}).Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
}

func TestRequestID_Generates(t *testing.T) {
	srv, last := captureServer(t)
	rt := Wrap(nil, RequestID())

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	do(t, rt, req)

	id := (*last.Load()).Get(HeaderRequestID)
	_, err = uuid.Parse(id)
	require.NoError(t, err, "expected a UUID, got %q", id)
	assert.Empty(t, req.Header.Get(HeaderRequestID), "original request must not be mutated")
}

func TestRequestID_KeepsValid(t *testing.T) {
	srv, last := captureServer(t)
	rt := Wrap(nil, RequestID())

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set(HeaderRequestID, "till-7-0001")
	do(t, rt, req)
	assert.Equal(t, "till-7-0001", (*last.Load()).Get(HeaderRequestID))
}

func TestRequestID_ReplacesInvalid(t *testing.T) {
	srv, last := captureServer(t)
	rt := Wrap(nil, RequestID())

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", 200))
	do(t, rt, req)

	_, err = uuid.Parse((*last.Load()).Get(HeaderRequestID))
	require.NoError(t, err)
}

func TestBearer(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "with token", token: "abc123", want: "Bearer abc123"},
		{name: "without token", token: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, last := captureServer(t)
			rt := Wrap(nil, Bearer(staticToken(tt.token)))

			req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
			require.NoError(t, err)
			do(t, rt, req)
			assert.Equal(t, tt.want, (*last.Load()).Get("Authorization"))
		})
	}
}

func TestWrap_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return Func(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(req)
			})
		}
	}
	srv, _ := captureServer(t)
	rt := Wrap(nil, mark("outer"), mark("inner"), UserAgent("pos-test"), Logging())

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	do(t, rt, req)
	assert.Equal(t, []string{"outer", "inner"}, order)
}
