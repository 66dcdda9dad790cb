package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/sliea/antennadesk/internal/models"
)

// newTestServer creates a test server that routes to the given handler map.
// Keys are "METHOD /path", values are handler funcs.
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(srv.URL, WithToken("test-token"))
	return srv, c
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func TestHealth(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, HealthResponse{Status: "ok", Version: "1.2.0", Connections: 3})
		},
	})
	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health() error: %v", err)
	}
	if resp.Status != "ok" || resp.Version != "1.2.0" {
		t.Errorf("got %+v", resp)
	}
	if resp.Connections != 3 {
		t.Errorf("got connections %d, want 3", resp.Connections)
	}
}

func TestReadyNotReady(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/ready": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 503, ReadinessResponse{Status: "not_ready", Checks: map[string]string{"schema": "outdated"}})
		},
	})
	_, err := c.Ready(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 503 {
		t.Fatalf("expected 503 APIError, got %v", err)
	}
}

func TestStats(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/stats/requests": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{
				"total":     4,
				"by_status": map[string]int{"pending": 3, "completed": 1},
				"by_type":   map[string]int{"activate": 4},
				"groups":    []RequestStat{{Status: "pending", Type: "activate", Count: 3}},
			})
		},
	})
	resp, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if resp.Total != 4 || resp.ByStatus[models.StatusPending] != 3 {
		t.Errorf("got %+v", resp)
	}
	if len(resp.Groups) != 1 || resp.Groups[0].Count != 3 {
		t.Errorf("groups: %+v", resp.Groups)
	}
}

func TestRequestsLifecycle(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"POST /api/v1/requests": func(w http.ResponseWriter, r *http.Request) {
			var req CreateRequestRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			jsonResponse(w, 201, Request{ID: "r1", Type: req.Type, Status: models.StatusPending, Notes: req.Notes})
		},
		"GET /api/v1/requests/r1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Request{ID: "r1", Status: models.StatusPending})
		},
		"PUT /api/v1/requests/r1": func(w http.ResponseWriter, r *http.Request) {
			var req UpdateRequestRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			jsonResponse(w, 200, Request{ID: "r1", Notes: *req.Notes})
		},
		"PATCH /api/v1/requests/r1/status": func(w http.ResponseWriter, r *http.Request) {
			var req SetStatusRequest
			json.NewDecoder(r.Body).Decode(&req) //nolint:errcheck
			jsonResponse(w, 200, Request{ID: "r1", Status: req.Status})
		},
		"DELETE /api/v1/requests/r1": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
	})

	ctx := context.Background()

	created, err := c.Requests.Create(ctx, &CreateRequestRequest{Type: models.RequestActivate, Notes: "asap"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "r1" || created.Type != models.RequestActivate || created.Notes != "asap" {
		t.Errorf("Create got %+v", created)
	}

	got, err := c.Requests.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Errorf("Get status %q", got.Status)
	}

	notes := "called the client"
	updated, err := c.Requests.Update(ctx, "r1", &UpdateRequestRequest{Notes: &notes})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Notes != notes {
		t.Errorf("Update notes %q", updated.Notes)
	}

	done, err := c.Requests.SetStatus(ctx, "r1", &SetStatusRequest{Status: models.StatusCompleted})
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if done.Status != models.StatusCompleted {
		t.Errorf("SetStatus got %q", done.Status)
	}

	if err := c.Requests.Delete(ctx, "r1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestRequestsListParams(t *testing.T) {
	var gotQuery string
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/requests": func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			jsonResponse(w, 200, map[string]any{"requests": []Request{{ID: "r1"}, {ID: "r2"}}, "has_more": true})
		},
	})

	reqs, hasMore, err := c.Requests.List(context.Background(), &ListOptions{
		Status: models.StatusPending,
		Type:   models.RequestChangePlan,
		Limit:  2,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(reqs) != 2 || !hasMore {
		t.Errorf("got %d requests, has_more=%v", len(reqs), hasMore)
	}
	if want := "limit=2&status=pending&type=change_plan"; gotQuery != want {
		t.Errorf("query: got %q, want %q", gotQuery, want)
	}
}

func TestRequestsForClient(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/clients/c1/requests": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"requests": []Request{{ID: "r1"}, {ID: "r2"}}})
		},
		"GET /api/v1/clients/c1/requests/pending": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, map[string]any{"requests": []Request{{ID: "r2"}}})
		},
	})

	ctx := context.Background()

	all, err := c.Requests.ByClient(ctx, "c1")
	if err != nil || len(all) != 2 {
		t.Fatalf("ByClient: %d, %v", len(all), err)
	}

	open, err := c.Requests.PendingForClient(ctx, "c1")
	if err != nil || len(open) != 1 || open[0].ID != "r2" {
		t.Fatalf("PendingForClient: %+v, %v", open, err)
	}
}

func TestEquipmentGet(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/equipment/e1": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 200, Equipment{ID: "e1", KitNumber: "KIT-001", Status: models.EquipmentActive})
		},
	})
	eq, err := c.Equipment.Get(context.Background(), "e1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if eq.KitNumber != "KIT-001" || eq.Status != models.EquipmentActive {
		t.Errorf("got %+v", eq)
	}
}

func TestAPIError(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/requests/missing": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 404, map[string]string{"code": "not_found", "message": "request not found"})
		},
		"PATCH /api/v1/requests/r1/status": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 409, map[string]string{"code": "conflict", "message": "status changed concurrently"})
		},
		"PATCH /api/v1/requests/r2/status": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 422, map[string]string{"code": "domain_error", "message": "no target plan", "request_id": "abc"})
		},
		"DELETE /api/v1/requests/r1": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(403)
			w.Write([]byte("forbidden")) //nolint:errcheck
		},
	})

	ctx := context.Background()

	_, err := c.Requests.Get(ctx, "missing")
	if !IsNotFound(err) {
		t.Errorf("expected not found, got: %v", err)
	}

	_, err = c.Requests.SetStatus(ctx, "r1", &SetStatusRequest{Status: models.StatusCompleted})
	if !IsConflict(err) {
		t.Errorf("expected conflict, got: %v", err)
	}

	_, err = c.Requests.SetStatus(ctx, "r2", &SetStatusRequest{Status: models.StatusCompleted})
	if !IsDomain(err) {
		t.Errorf("expected domain error, got: %v", err)
	}
	if err != nil && err.Error() != "antennadesk: 422 domain_error: no target plan (request_id=abc)" {
		t.Errorf("message: %q", err.Error())
	}

	err = c.Requests.Delete(ctx, "r1")
	var apiErr *APIError
	if !IsForbidden(err) || !errors.As(err, &apiErr) || apiErr.Code != "unknown" || apiErr.Message != "forbidden" {
		t.Errorf("expected raw forbidden, got: %v", err)
	}
}

func TestReadRetriesOnRateLimit(t *testing.T) {
	var gets, posts atomic.Int32
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/requests/r1": func(w http.ResponseWriter, _ *http.Request) {
			if gets.Add(1) < 3 {
				w.Header().Set("Retry-After", "0")
				jsonResponse(w, 429, map[string]string{"code": "rate_limited", "message": "rate limit exceeded"})
				return
			}
			jsonResponse(w, 200, map[string]string{"id": "r1", "status": "pending"})
		},
		"POST /api/v1/requests": func(w http.ResponseWriter, _ *http.Request) {
			posts.Add(1)
			w.Header().Set("Retry-After", "3")
			w.Header().Set("X-Request-ID", "rid-1")
			jsonResponse(w, 429, map[string]string{"code": "rate_limited", "message": "rate limit exceeded"})
		},
	})

	ctx := context.Background()

	req, err := c.Requests.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get after retries: %v", err)
	}
	if req.ID != "r1" || gets.Load() != 3 {
		t.Errorf("id=%q attempts=%d, want r1 after 3", req.ID, gets.Load())
	}

	_, err = c.Requests.Create(ctx, &CreateRequestRequest{Type: models.RequestActivate})
	if !IsRateLimited(err) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if posts.Load() != 1 {
		t.Errorf("POST attempted %d times, want 1", posts.Load())
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.RetryAfter != 3*time.Second || apiErr.RequestID != "rid-1" {
		t.Errorf("APIError = %+v, want RetryAfter 3s and request id from header", apiErr)
	}
}

func TestReadRetriesDisabled(t *testing.T) {
	var gets atomic.Int32
	srv, _ := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, _ *http.Request) {
			gets.Add(1)
			jsonResponse(w, 429, map[string]string{"code": "rate_limited", "message": "slow down"})
		},
	})

	c := New(srv.URL, WithReadRetries(0))
	if _, err := c.Health(context.Background()); !IsRateLimited(err) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if gets.Load() != 1 {
		t.Errorf("attempts = %d, want 1", gets.Load())
	}
}

func TestAuthHeader(t *testing.T) {
	var gotAuth string
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			jsonResponse(w, 200, HealthResponse{Status: "ok"})
		},
	})

	c.Health(context.Background()) //nolint:errcheck
	if gotAuth != "Bearer test-token" {
		t.Errorf("auth header: got %q, want %q", gotAuth, "Bearer test-token")
	}
}

func TestWatch(t *testing.T) {
	type handshake struct {
		auth string
		join joinMsg
	}
	seen := make(chan handshake, 1)

	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/ws": func(w http.ResponseWriter, r *http.Request) {
			conn, err := websocket.Accept(w, r, nil)
			if err != nil {
				return
			}
			defer conn.CloseNow() //nolint:errcheck

			ctx := r.Context()
			hs := handshake{auth: r.Header.Get("Authorization")}
			if err := wsjson.Read(ctx, conn, &hs.join); err != nil {
				return
			}
			seen <- hs
			wsjson.Write(ctx, conn, map[string]string{"type": "joined", "channel": "user_c1"}) //nolint:errcheck

			data, _ := json.Marshal(Notification{Kind: models.KindRequestStatusChange, Message: "done"})
			wsjson.Write(ctx, conn, Event{Type: "notification", ID: 1, Channel: "user_c1", Data: data}) //nolint:errcheck
			wsjson.Write(ctx, conn, map[string]string{"type": "shutdown", "message": "bye"})             //nolint:errcheck

			time.Sleep(50 * time.Millisecond)
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var joined string
	var events []*Event

	err := c.Watch(ctx, WatchOptions{
		PrincipalID: "c1",
		Role:        "user",
		OnJoined:    func(ch string) { joined = ch },
	}, func(e *Event) error {
		events = append(events, e)
		return nil
	})
	if !errors.Is(err, ErrServerShutdown) {
		t.Fatalf("Watch err = %v, want ErrServerShutdown", err)
	}

	hs := <-seen
	if hs.auth != "Bearer test-token" {
		t.Errorf("auth header: got %q", hs.auth)
	}
	if hs.join.Type != "join" || hs.join.PrincipalID != "c1" || hs.join.Role != "user" {
		t.Errorf("join: %+v", hs.join)
	}
	if joined != "user_c1" {
		t.Errorf("joined channel %q", joined)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	n, err := events[0].Notification()
	if err != nil {
		t.Fatal(err)
	}
	if n.Kind != models.KindRequestStatusChange || n.Message != "done" {
		t.Errorf("notification: %+v", n)
	}
}

func TestWatchStopsOnHandlerError(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/ws": func(w http.ResponseWriter, r *http.Request) {
			conn, err := websocket.Accept(w, r, nil)
			if err != nil {
				return
			}
			defer conn.CloseNow() //nolint:errcheck

			var join joinMsg
			wsjson.Read(r.Context(), conn, &join)                                                      //nolint:errcheck
			wsjson.Write(r.Context(), conn, Event{Type: "notification", ID: 1, Data: []byte(`{}`)}) //nolint:errcheck
			conn.Read(r.Context())                                                                  //nolint:errcheck
		},
	})

	stop := errors.New("stop")
	err := c.Watch(context.Background(), WatchOptions{PrincipalID: "c1"}, func(*Event) error { return stop })
	if !errors.Is(err, stop) {
		t.Fatalf("Watch err = %v, want handler error", err)
	}
}

func TestWatchHandshakeRejected(t *testing.T) {
	_, c := newTestServer(t, map[string]http.HandlerFunc{
		"GET /api/v1/ws": func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, 401, map[string]string{"code": "unauthorized", "message": "invalid token"})
		},
	})

	err := c.Watch(context.Background(), WatchOptions{PrincipalID: "c1"}, func(*Event) error { return nil })
	if !IsUnauthorized(err) {
		t.Fatalf("Watch err = %v, want 401", err)
	}
}
