package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/clubhub/internal/model"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret-token", Options{MaxRetries: 2})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_CallSendsEnvelope(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody rpcRequest

	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeJSON(w, http.StatusOK, model.Team{ID: 7, ClubID: 3, Name: "U12s"})
	})

	team, err := c.GetTeamByID(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "/rpc/getTeamById", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	require.Len(t, gotBody.Args, 1)
	assert.Equal(t, float64(7), gotBody.Args[0])
	assert.Equal(t, "U12s", team.Name)
}

func TestClient_DecodesNotifications(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "message": "hello", "timestamp": 1700000000000000000, "isRead": false},
			{"id": 2, "message": "New join request", "timestamp": 1, "isRead": true, "requestId": 42, "chatThreadId": 4}
		]`))
	})

	list, err := c.GetNotifications(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(1700000000000000000), list[0].Timestamp)
	assert.Nil(t, list[0].RequestID)
	require.NotNil(t, list[1].RequestID)
	assert.Equal(t, uint64(42), *list[1].RequestID)
	assert.True(t, list[1].IsRead)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   interface{}
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   rpcError{Error: "token expired"},
			check: func(t *testing.T, err error) {
				assert.True(t, IsAuthError(err))
				assert.Contains(t, err.Error(), "token expired")
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotFound)
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   rpcError{Error: "canister trapped"},
			check: func(t *testing.T, err error) {
				var rpcErr *RPCError
				require.ErrorAs(t, err, &rpcErr)
				assert.Equal(t, http.StatusInternalServerError, rpcErr.StatusCode)
				assert.Equal(t, "canister trapped", rpcErr.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := c.GetClubByID(context.Background(), 3)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_NullResultIsNotFound(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("null"))
	})

	_, err := c.GetJoinRequestByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.MarkNotificationAsRead(context.Background(), 1))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RateLimitExhausted(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := c.ClearAllNotifications(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries (2) exceeded")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	var transitions []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "", Options{
		OnBreakerChange: func(from, to string) {
			transitions = append(transitions, from+"->"+to)
		},
	})

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := c.GetAllClubs(ctx)
		require.Error(t, err)
	}

	_, err := c.GetAllClubs(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Contains(t, err.Error(), "backend unavailable")
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	ctx := context.Background()
	for i := 0; i < 6; i++ {
		_, err := c.GetTeamByID(ctx, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(6), calls.Load())
}

func TestClient_WhoAmI(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rpc/whoami", r.URL.Path)
		writeJSON(w, http.StatusOK, "aaaaa-aa")
	})

	principal, err := c.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "aaaaa-aa", principal)
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, "1s", retryAfterDuration(resp, 0).String())
	assert.Equal(t, "4s", retryAfterDuration(resp, 2).String())
	assert.Equal(t, "30s", retryAfterDuration(resp, 10).String())

	resp.Header.Set("Retry-After", "7")
	assert.Equal(t, "7s", retryAfterDuration(resp, 0).String())
}
