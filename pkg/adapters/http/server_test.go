package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	charterhttp "github.com/aretw0/charter/pkg/adapters/http"
	"github.com/aretw0/charter/pkg/adapters/memory"
	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/formation"
	"github.com/aretw0/charter/pkg/session"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	svc := formation.NewService(memory.NewStore(), session.NewManager())
	srv := httptest.NewServer(charterhttp.NewHandler(svc))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func startSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/sessions", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decode[formation.Result](t, resp)
	require.NotEmpty(t, res.SessionID)
	return res.SessionID
}

func TestStartAndStep(t *testing.T) {
	srv := newTestAPI(t)
	id := startSession(t, srv)

	resp := postJSON(t, fmt.Sprintf("%s/sessions/%s/set_state", srv.URL, id), map[string]string{"state": "DE"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[formation.Result](t, resp)
	assert.True(t, res.Success)
	assert.Equal(t, domain.StepStateSelected, res.Step)

	resp, err := http.Get(fmt.Sprintf("%s/sessions/%s", srv.URL, id))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[formation.StatusReport](t, resp)
	assert.Equal(t, id, report.SessionID)
	assert.Equal(t, domain.StepStateSelected, report.Step)
}

func TestValidationMapsTo422(t *testing.T) {
	srv := newTestAPI(t)
	id := startSession(t, srv)

	resp := postJSON(t, fmt.Sprintf("%s/sessions/%s/set_state", srv.URL, id), map[string]string{"state": "XX"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Contains(t, body["error"], "DE")
}

func TestUnknownSessionMapsTo404(t *testing.T) {
	srv := newTestAPI(t)

	resp := postJSON(t, srv.URL+"/sessions/missing/set_state", map[string]string{"state": "DE"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUnknownOperationMapsTo404(t *testing.T) {
	srv := newTestAPI(t)
	id := startSession(t, srv)

	resp := postJSON(t, fmt.Sprintf("%s/sessions/%s/no_such_op", srv.URL, id), map[string]string{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteSession(t *testing.T) {
	srv := newTestAPI(t)
	id := startSession(t, srv)

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/sessions/%s", srv.URL, id), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestListSessions(t *testing.T) {
	srv := newTestAPI(t)
	startSession(t, srv)
	startSession(t, srv)

	resp, err := http.Get(srv.URL + "/sessions")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summaries := decode[[]map[string]any](t, resp)
	assert.Len(t, summaries, 2)
}

func TestReadinessEndpoint(t *testing.T) {
	srv := newTestAPI(t)
	id := startSession(t, srv)

	resp, err := http.Get(fmt.Sprintf("%s/sessions/%s/readiness", srv.URL, id))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[formation.ReadinessReport](t, resp)
	assert.False(t, report.Ready)
	assert.NotEmpty(t, report.MissingFields)
}

func TestHealthAndCatalog(t *testing.T) {
	srv := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/catalog")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	catalog := decode[domain.Catalog](t, resp)
	assert.Contains(t, catalog.TypesByState, "DE")
}

func TestMetricsExposed(t *testing.T) {
	srv := newTestAPI(t)
	id := startSession(t, srv)
	postJSON(t, fmt.Sprintf("%s/sessions/%s/set_state", srv.URL, id), map[string]string{"state": "DE"}).Body.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "charter_operations_total")
}
