package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	fabhttp "github.com/aretw0/fabstate/pkg/adapters/http"
	"github.com/aretw0/fabstate/pkg/adapters/memory"
	"github.com/aretw0/fabstate/pkg/domain"
	"github.com/aretw0/fabstate/pkg/loader"
	"github.com/aretw0/fabstate/pkg/ports"
	"github.com/aretw0/fabstate/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter() *state.Descriptor {
	return state.New().
		Name("counter").
		State(domain.Tree{"count": 0}).
		Dispatcher(func(_ *domain.Context, tree, _ domain.Tree) domain.ActionTable {
			return domain.ActionTable{
				"add": func(_ *domain.Context, value any) any {
					n, _ := value.(float64)
					tree["count"] = tree["count"].(int) + int(n)
					return tree["count"]
				},
				"boom": func(*domain.Context, any) any {
					panic("boom")
				},
			}
		}).
		Connect(domain.Connect{
			Output: func(_ *domain.Context, tree, _ domain.Tree) domain.Tree {
				return domain.Tree{"total": tree["count"]}
			},
		}).
		Build()
}

func newServer(t *testing.T, sub ports.Submitter) (*fabhttp.Server, http.Handler) {
	t.Helper()
	scope := memory.NewScope(memory.WithSubmitter(sub))
	l, err := loader.New(scope)
	require.NoError(t, err)
	require.NoError(t, l.Register(counter()))

	srv := fabhttp.NewServer(l, scope)
	return srv, srv.Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_States(t *testing.T) {
	_, h := newServer(t, memory.NewRecorder())

	w := do(t, h, "GET", "/states", "")
	require.Equal(t, http.StatusOK, w.Code)
	var names []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &names))
	assert.Equal(t, []string{"counter"}, names)

	w = do(t, h, "GET", "/states/counter", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp fabhttp.StateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.InUse)
	assert.Equal(t, float64(0), resp.Snapshot["count"])

	w = do(t, h, "GET", "/states/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Dispatch(t *testing.T) {
	_, h := newServer(t, memory.NewRecorder())

	w := do(t, h, "POST", "/states/counter/dispatch/add", "3")
	require.Equal(t, http.StatusOK, w.Code)
	var resp fabhttp.DispatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(3), resp.Result)
	assert.Equal(t, float64(3), resp.Snapshot["count"])

	t.Run("Unknown action returns null", func(t *testing.T) {
		w := do(t, h, "POST", "/states/counter/dispatch/nope", "")
		require.Equal(t, http.StatusOK, w.Code)
		var resp fabhttp.DispatchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Nil(t, resp.Result)
	})

	t.Run("Invalid body", func(t *testing.T) {
		w := do(t, h, "POST", "/states/counter/dispatch/add", "{")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown state", func(t *testing.T) {
		w := do(t, h, "POST", "/states/missing/dispatch/add", "1")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Handler panic is recovered", func(t *testing.T) {
		w := do(t, h, "POST", "/states/counter/dispatch/boom", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		w = do(t, h, "GET", "/states/counter", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestServer_Send(t *testing.T) {
	rec := memory.NewRecorder()
	_, h := newServer(t, rec)

	do(t, h, "POST", "/states/counter/dispatch/add", "2")

	w := do(t, h, "POST", "/send", `{"tag":"final"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var output map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &output))
	assert.Equal(t, float64(2), output["total"])

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "final", last.Tag)
	assert.Equal(t, map[string]any{"total": 2}, last.Output)

	w = do(t, h, "GET", "/output", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":2}`, w.Body.String())
}

func TestServer_SendWithoutSave(t *testing.T) {
	rec := memory.NewRecorder()
	_, h := newServer(t, rec)

	w := do(t, h, "POST", "/send", `{"tag":"draft","save":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "draft", last.Tag)
	assert.Empty(t, last.Output)
}

func TestServer_SendError(t *testing.T) {
	failing := ports.SubmitterFunc(func(context.Context, ports.Submission) error {
		return errors.New("offline")
	})
	_, h := newServer(t, failing)

	w := do(t, h, "POST", "/send", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "offline")
}

func TestServer_Show(t *testing.T) {
	_, h := newServer(t, memory.NewRecorder())

	w := do(t, h, "POST", "/show", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	scope := memory.NewScope()
	l, err := loader.New(scope)
	require.NoError(t, err)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	h := fabhttp.NewHandler(l, scope, fabhttp.WithMetricsHandler(metrics))

	w := do(t, h, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestServer_SubscribeEvents(t *testing.T) {
	srv, h := newServer(t, memory.NewRecorder())
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/events?state=counter", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	require.Eventually(t, func() bool {
		return srv.Streams.Subscribers("counter") == 1
	}, time.Second, 10*time.Millisecond)

	do(t, h, "POST", "/states/counter/dispatch/add", "5")

	var data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
			break
		}
	}

	var update domain.SnapshotDiff
	require.NoError(t, json.Unmarshal([]byte(data), &update))
	assert.Equal(t, "counter", update.State)
	assert.Equal(t, map[string]any{"count": float64(5)}, update.Changes)
}

func TestStreamManager_Unsubscribe(t *testing.T) {
	sm := fabhttp.NewStreamManager()
	ch, cancel := sm.Subscribe("a")
	assert.Equal(t, 1, sm.Subscribers("a"))

	sm.Broadcast("a", "hello")
	assert.Equal(t, "hello", <-ch)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("a"))
	_, open := <-ch
	assert.False(t, open)
}
