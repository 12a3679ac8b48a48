package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"personabot/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubResponder struct {
	mu     sync.Mutex
	inputs []string
	reply  func(input string) (types.Reply, error)
}

func (s *stubResponder) Respond(_ context.Context, input string) (types.Reply, error) {
	s.mu.Lock()
	s.inputs = append(s.inputs, input)
	s.mu.Unlock()
	if s.reply != nil {
		return s.reply(input)
	}
	return types.Reply{Text: "Oi! " + input, Capability: "freeform"}, nil
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/message", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newRoutes(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	h, err := NewHandler(cfg)
	require.NoError(t, err)
	return h.Routes()
}

func TestMessage(t *testing.T) {
	resp := &stubResponder{}
	routes := newRoutes(t, Config{Responder: resp})

	rec := post(t, routes, `{"message":"  tell me about jazz  ","conversation_id":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var out MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, MessageResponse{Reply: "Oi! tell me about jazz", ConversationID: "abc", Capability: "freeform"}, out)
	assert.Equal(t, []string{"tell me about jazz"}, resp.inputs)
}

func TestMessage_AssignsConversationID(t *testing.T) {
	routes := newRoutes(t, Config{Responder: &stubResponder{}})

	rec := post(t, routes, `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	_, err := uuid.Parse(out.ConversationID)
	assert.NoError(t, err)
}

func TestMessage_BadRequests(t *testing.T) {
	resp := &stubResponder{}
	routes := newRoutes(t, Config{Responder: resp, MaxBodyBytes: 64})

	for name, body := range map[string]string{
		"invalid json":  `{"message":`,
		"empty message": `{"message":"   "}`,
		"too large":     `{"message":"` + strings.Repeat("x", 100) + `"}`,
	} {
		rec := post(t, routes, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		var out ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), name)
		assert.NotEmpty(t, out.Error, name)
	}
	assert.Empty(t, resp.inputs)
}

func TestMessage_ResponderError(t *testing.T) {
	resp := &stubResponder{reply: func(string) (types.Reply, error) {
		return types.Reply{}, errors.New("anthropic overloaded")
	}}
	rec := post(t, newRoutes(t, Config{Responder: resp}), `{"message":"intro"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "anthropic overloaded")
}

func TestMessage_ExitAndInfo(t *testing.T) {
	resp := &stubResponder{reply: func(in string) (types.Reply, error) {
		if in == "quit" {
			return types.Reply{Exit: true}, nil
		}
		return types.Reply{Info: types.InfoAbout}, nil
	}}
	routes := newRoutes(t, Config{Responder: resp, InfoText: func(k types.InfoKind) string { return "screen:" + string(k) }})

	var out MessageResponse
	rec := post(t, routes, `{"message":"quit"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, Farewell, out.Reply)

	rec = post(t, routes, `{"message":"about"}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "screen:about", out.Reply)
}

func TestMessage_RequestsAreSerialized(t *testing.T) {
	var active, peak atomic.Int32
	resp := &stubResponder{reply: func(in string) (types.Reply, error) {
		n := active.Add(1)
		if n > peak.Load() {
			peak.Store(n)
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return types.Reply{Text: in}, nil
	}}
	routes := newRoutes(t, Config{Responder: resp})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			post(t, routes, `{"message":"hi"}`)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), peak.Load())
}

func TestMessage_Timeout(t *testing.T) {
	resp := &stubResponder{reply: func(string) (types.Reply, error) {
		return types.Reply{}, context.DeadlineExceeded
	}}
	rec := post(t, newRoutes(t, Config{Responder: resp, RequestTimeout: time.Millisecond}), `{"message":"x"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealth(t *testing.T) {
	routes := newRoutes(t, Config{Responder: &stubResponder{}, Domain: "agent.example.org"})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, HealthResponse{Status: "ok", Domain: "agent.example.org"}, out)
}

func TestMethodNotAllowed(t *testing.T) {
	routes := newRoutes(t, Config{Responder: &stubResponder{}})
	req := httptest.NewRequest(http.MethodGet, "/api/message", nil)
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNewHandler_RequiresResponder(t *testing.T) {
	_, err := NewHandler(Config{})
	assert.Error(t, err)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	srv, err := NewServer(Config{Addr: "127.0.0.1:0", Domain: "local", Responder: &stubResponder{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	res, err := client.Post("http://"+srv.Addr()+"/api/message", "application/json", bytes.NewBufferString(`{"message":"hello"}`))
	require.NoError(t, err)
	var out MessageResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	res.Body.Close()
	assert.Equal(t, "Oi! hello", out.Reply)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewServer_BadAddr(t *testing.T) {
	_, err := NewServer(Config{Addr: "256.0.0.1:bad", Responder: &stubResponder{}})
	assert.Error(t, err)
}
