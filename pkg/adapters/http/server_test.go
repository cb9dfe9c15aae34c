package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tree"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	eng := canopy.New(canopy.WithIDGenerator(tree.NewSequence("n")))
	return NewHandler(eng, WithMetricsHandler(promhttp.Handler()))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const heroCommands = `{"commands":[
	{"op":"insert","node":{"type":"section","label":"Hero","children":[
		{"type":"button","attributes":{"action":"popup","targetId":"n3"}}
	]}},
	{"op":"insert","node":{"type":"form"}}
]}`

func TestDocumentsLifecycle(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "GET", "/documents/landing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "POST", "/documents/landing/commands", heroCommands)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CommandsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "n1", resp.Results[0].ID)

	w = do(t, h, "GET", "/documents", "")
	assert.JSONEq(t, `{"documents":["landing"]}`, w.Body.String())

	w = do(t, h, "GET", "/documents/landing", "")
	require.Equal(t, http.StatusOK, w.Code)
	var doc domain.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Len(t, doc.RootNodes, 2)

	w = do(t, h, "GET", "/documents/landing/targets", "")
	assert.JSONEq(t, `{"popups":["n3"],"megaMenus":[]}`, w.Body.String())

	w = do(t, h, "GET", "/documents/landing/validate", "")
	assert.JSONEq(t, `{"issues":[]}`, w.Body.String())

	w = do(t, h, "DELETE", "/documents/landing", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "GET", "/documents/landing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplyCommands_Errors(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "POST", "/documents/d/commands", `{"commands":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, "POST", "/documents/d/commands", `{"op":"explode"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, "POST", "/documents/d/commands", `[
		{"op":"insert","node":{"type":"section"}},
		{"op":"insert","node":{"type":"text"}},
		{"op":"update_id","id":"n2","newId":"n1"}
	]`)
	assert.Equal(t, http.StatusConflict, w.Code)
	var resp CommandsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 2, "commands before the failure are reported")
	assert.Contains(t, resp.Error, "duplicate")

	w = do(t, h, "POST", "/documents/d/commands", `{"op":"detach","id":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTemplates(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "POST", "/documents/d/commands", `[
		{"op":"insert","node":{"type":"section"}},
		{"op":"save_as_template","id":"n1","name":"Hero","global":true}
	]`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp CommandsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	tid := resp.Results[1].Template.TemplateID

	w = do(t, h, "GET", "/documents/d/templates/"+tid, "")
	require.Equal(t, http.StatusOK, w.Code)
	var tpl domain.Template
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tpl))
	assert.True(t, tpl.IsGlobal)

	w = do(t, h, "GET", "/documents/d/templates/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "GET", "/documents/d/templates", "")
	assert.Contains(t, w.Body.String(), tid)
}

func TestHealthInfoMetrics(t *testing.T) {
	h := newTestHandler(t)

	assert.JSONEq(t, `{"status":"ok"}`, do(t, h, "GET", "/health", "").Body.String())
	assert.Contains(t, do(t, h, "GET", "/info", "").Body.String(), "canopy-http")
	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/metrics", "").Code)

	w := do(t, h, "OPTIONS", "/documents", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents(t *testing.T) {
	eng := canopy.New(canopy.WithIDGenerator(tree.NewSequence("n")))
	handler := NewHandler(eng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/documents/d/events?watch=templates", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(wSub, reqSub)
	}()

	time.Sleep(100 * time.Millisecond) // Wait for subscription to register

	// Page-only change: filtered out by watch=templates.
	w := do(t, handler, "POST", "/documents/d/commands", `{"op":"insert","node":{"type":"section"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	// Template change: delivered.
	w = do(t, handler, "POST", "/documents/d/commands", `{"op":"save_as_template","id":"n1","name":"Hero"}`)
	require.Equal(t, http.StatusOK, w.Code)

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := wSub.Body.String()
	assert.Contains(t, output, "event: ping")
	assert.Contains(t, output, "templates_added")
	assert.Equal(t, 1, strings.Count(output, "event: diff"))
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("d")
	assert.Equal(t, 1, sm.Subscribers("d"))

	sm.Broadcast("d", "hello")
	sm.Broadcast("other", "ignored")
	assert.Equal(t, "hello", <-ch)

	// A full buffer drops instead of blocking.
	for i := 0; i < 20; i++ {
		sm.Broadcast("d", "x")
	}
	assert.Len(t, ch, 10)

	cancel()
	assert.Equal(t, 0, sm.Subscribers("d"))
}
