package control

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"vulnboard/internal/dashboard"
	"vulnboard/internal/fixtures"
	"vulnboard/internal/schedule"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeUI plays the bubbletea program: it runs every Invoke against a
// dashboard controller under a lock and publishes the resulting snapshot.
type fakeUI struct {
	mu    sync.Mutex
	c     *dashboard.Controller
	store *Store
	sent  []Invoke
	mute  bool
}

func newFakeUI() *fakeUI {
	tl := schedule.NewTimeline(clockwork.NewFakeClock())
	ui := &fakeUI{
		c:     dashboard.NewController(fixtures.DefaultDashboard(), tl, dashboard.Options{}),
		store: NewStore(),
	}
	ui.publish()
	return ui
}

func (u *fakeUI) publish() {
	st := u.c.Snapshot()
	u.store.Publish(State{Screen: ScreenDashboard, Dashboard: &st})
}

func (u *fakeUI) Send(msg tea.Msg) {
	inv, ok := msg.(Invoke)
	if !ok {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sent = append(u.sent, inv)
	if u.mute {
		return
	}
	if inv.Screen != ScreenDashboard {
		inv.Respond(Result{Err: ErrScreenInactive})
		return
	}
	changed, err := u.c.Invoke(inv.Op, inv.Arg)
	u.publish()
	inv.Respond(Result{Changed: changed, Err: err})
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	s := NewServer("", newFakeUI(), NewStore())
	rec, _ := do(t, s.Handler(), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestStateBeforePublish(t *testing.T) {
	s := NewServer("", newFakeUI(), NewStore())
	rec, resp := do(t, s.Handler(), http.MethodGet, "/api/state")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, resp.Success)
}

func TestInvokeOpensAndConfirms(t *testing.T) {
	ui := newFakeUI()
	s := NewServer("", ui, ui.store)

	rec, resp := do(t, s.Handler(), http.MethodPost, "/api/dashboard/open?id=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]interface{}{"changed": true}, resp.Data)

	require.Len(t, ui.sent, 1)
	assert.Equal(t, ScreenDashboard, ui.sent[0].Screen)
	assert.Equal(t, "open", ui.sent[0].Op)
	assert.Equal(t, 2, ui.sent[0].Arg)

	rec, resp = do(t, s.Handler(), http.MethodGet, "/api/state")
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "dashboard", data["screen"])
	dash := data["dashboard"].(map[string]interface{})
	assert.Equal(t, float64(2), dash["modal_open"])

	rec, resp = do(t, s.Handler(), http.MethodPost, "/api/dashboard/confirm?id=99")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"changed": false}, resp.Data, "stale id is a no-op")
}

func TestInvokeRejectsBadRequests(t *testing.T) {
	ui := newFakeUI()
	s := NewServer("", ui, ui.store)

	rec, _ := do(t, s.Handler(), http.MethodPost, "/api/dashboard/explode")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, s.Handler(), http.MethodPost, "/api/dashboard/open?id=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, s.Handler(), http.MethodPost, "/api/wizard/analyze")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = do(t, s.Handler(), http.MethodGet, "/api/dashboard/open")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	assert.Len(t, ui.sent, 1, "only the wizard call reached the UI")
}

func TestInvokeTimesOut(t *testing.T) {
	ui := newFakeUI()
	ui.mute = true
	s := NewServer("", ui, ui.store)
	s.timeout = 20 * time.Millisecond

	rec, resp := do(t, s.Handler(), http.MethodPost, "/api/dashboard/toggle-ai")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "ui did not respond", resp.Message)
}

func TestServeStopsOnCancel(t *testing.T) {
	ui := newFakeUI()
	s := NewServer("", ui, ui.store)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	transport := &http.Transport{}
	client := &http.Client{Transport: transport, Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	transport.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
