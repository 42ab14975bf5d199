package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Oliverpt-1/Thymos/internal/models"
)

func dialStream(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/insights/stream?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("stream dial failed: %v", err)
	}
	return conn
}

// waitForSubscriber blocks until the hub has n subscribers for the owner;
// registration races the client's dial returning
func waitForSubscriber(t *testing.T, srv *Server, owner string, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		srv.hub.mu.RLock()
		registered := len(srv.hub.conns[owner]) == n
		srv.hub.mu.RUnlock()
		if registered {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscriber count for %s never reached %d", owner, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestInsightStreamReceivesBroadcast(t *testing.T) {
	srv := newTestServer(&fakeTradeRepo{}, &fakeInsightRepo{}, &fakeVerifier{owner: "user-1"})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	conn := dialStream(t, ts, "good-token")
	defer conn.Close()

	waitForSubscriber(t, srv, "user-1", 1)

	batch := []models.Insight{{Type: models.InsightTypePattern, Title: "Pushed", Content: "x", Severity: models.SeverityInfo}}
	srv.hub.Broadcast("user-1", batch)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var payload struct {
		Insights []models.Insight `json:"insights"`
	}
	if err := json.Unmarshal(message, &payload); err != nil {
		t.Fatalf("stream payload did not decode: %v", err)
	}
	if len(payload.Insights) != 1 || payload.Insights[0].Title != "Pushed" {
		t.Errorf("unexpected stream payload: %+v", payload)
	}

	// Broadcast to another owner must not reach this subscriber
	srv.hub.Broadcast("user-2", batch)
	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("received a broadcast meant for another owner")
	}
}

// Generation requests for one owner may run concurrently, and each broadcasts
// to the same subscribers; writes to a connection must be serialized.
func TestBroadcastConcurrentSameOwner(t *testing.T) {
	srv := newTestServer(&fakeTradeRepo{}, &fakeInsightRepo{}, &fakeVerifier{owner: "user-1"})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	conn := dialStream(t, ts, "good-token")
	defer conn.Close()

	waitForSubscriber(t, srv, "user-1", 1)

	batch := []models.Insight{{
		Type:     models.InsightTypePattern,
		Title:    "Concurrent Push",
		Content:  strings.Repeat("Your breakout setups keep outperforming. ", 200),
		Severity: models.SeverityInfo,
	}}

	const broadcasts = 8
	var wg sync.WaitGroup
	for i := 0; i < broadcasts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv.hub.Broadcast("user-1", batch)
		}()
	}

	received := make(chan error, 1)
	go func() {
		for i := 0; i < broadcasts; i++ {
			conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				received <- err
				return
			}
		}
		received <- nil
	}()

	wg.Wait()
	if err := <-received; err != nil {
		t.Fatalf("expected %d intact messages, read failed: %v", broadcasts, err)
	}

	srv.hub.mu.RLock()
	remaining := len(srv.hub.conns["user-1"])
	srv.hub.mu.RUnlock()
	if remaining != 1 {
		t.Errorf("subscriber dropped by concurrent broadcasts, %d left", remaining)
	}
}

func TestInsightStreamAuthorizationHeader(t *testing.T) {
	srv := newTestServer(&fakeTradeRepo{}, &fakeInsightRepo{}, &fakeVerifier{owner: "user-1"})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/insights/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer good-token"}})
	if err != nil {
		t.Fatalf("dial with bearer header failed: %v", err)
	}
	conn.Close()
}

// A non-bearer Authorization scheme carries no usable token
func TestInsightStreamRejectsNonBearerHeader(t *testing.T) {
	srv := newTestServer(&fakeTradeRepo{}, &fakeInsightRepo{}, &fakeVerifier{owner: "user-1"})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/insights/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a non-bearer credential, got %d", resp.StatusCode)
	}
}

func TestInsightStreamRequiresToken(t *testing.T) {
	srv := newTestServer(&fakeTradeRepo{}, &fakeInsightRepo{}, &fakeVerifier{err: models.ErrUnauthorized})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/insights/stream")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestHubCloseDropsSubscribers(t *testing.T) {
	srv := newTestServer(&fakeTradeRepo{}, &fakeInsightRepo{}, &fakeVerifier{owner: "user-1"})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	conn := dialStream(t, ts, "good-token")
	defer conn.Close()

	srv.hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to be closed by the hub")
	}

	srv.hub.mu.RLock()
	remaining := len(srv.hub.conns)
	srv.hub.mu.RUnlock()
	if remaining != 0 {
		t.Errorf("expected no subscribers after close, got %d owners", remaining)
	}
}
