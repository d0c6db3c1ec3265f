package submit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ewok-core/ewok-paper/internal/config"
	"github.com/ewok-core/ewok-paper/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
	)
}

type captured struct {
	method      string
	path        string
	contentType string
	body        []byte
}

// recordingServer сохраняет все полученные запросы.
type recordingServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []captured
}

func newRecordingServer(t *testing.T, status int) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rs.mu.Lock()
		rs.requests = append(rs.requests, captured{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
		rs.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) received() []captured {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]captured(nil), rs.requests...)
}

func noKeepAliveClient(t *testing.T) *http.Client {
	t.Helper()
	transport := &http.Transport{DisableKeepAlives: true}
	t.Cleanup(transport.CloseIdleConnections)
	return &http.Client{Transport: transport}
}

func TestSubmitSendsPayloadShape(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK)
	endpoint, err := NewRouteEndpoint(srv.URL, "/save")
	require.NoError(t, err)

	s := New(endpoint, WithHTTPClient(noKeepAliveClient(t)))
	s.Submit(context.Background(), "subject42.json", map[string]any{"trial": 1, "response": "2"})
	s.Wait()

	reqs := srv.received()
	require.Len(t, reqs, 1)
	require.Equal(t, http.MethodPost, reqs[0].method)
	require.Equal(t, "/save", reqs[0].path)
	require.Equal(t, "application/json", reqs[0].contentType)
	require.JSONEq(t, `{"filename":"subject42.json","filedata":{"trial":1,"response":"2"}}`, string(reqs[0].body))
}

func TestSubmitUsesScriptPathInScriptMode(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK)
	endpoint, err := EndpointFromConfig(config.SubmitConfig{
		Mode:       config.SubmitModeScript,
		BaseURL:    srv.URL + "/experiment/",
		ScriptPath: "../static/write_data.php",
	})
	require.NoError(t, err)

	s := New(endpoint, WithHTTPClient(noKeepAliveClient(t)))
	s.Submit(context.Background(), "subject7.json", []int{1, 2, 3})
	s.Wait()

	reqs := srv.received()
	require.Len(t, reqs, 1)
	require.Equal(t, "/static/write_data.php", reqs[0].path)
}

func TestNewRequestTargetsEachEndpoint(t *testing.T) {
	route, err := NewRouteEndpoint("http://study.local/", "/save")
	require.NoError(t, err)
	script, err := NewScriptEndpoint("http://study.local/exp/", "../static/write_data.php")
	require.NoError(t, err)

	for _, endpoint := range []Endpoint{route, script} {
		req, err := New(endpoint).NewRequest(context.Background(), "subject42.json", map[string]any{"trial": 1, "response": "2"})
		require.NoError(t, err)
		require.Equal(t, http.MethodPost, req.Method)
		require.Equal(t, endpoint.Target(), req.URL.String())
		require.Equal(t, "application/json", req.Header.Get("Content-Type"))

		var rec struct {
			Filename string         `json:"filename"`
			Filedata map[string]any `json:"filedata"`
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&rec))
		require.Equal(t, "subject42.json", rec.Filename)
		require.Equal(t, map[string]any{"trial": float64(1), "response": "2"}, rec.Filedata)
	}
	require.Equal(t, "http://study.local/save", route.Target())
	require.Equal(t, "http://study.local/static/write_data.php", script.Target())
}

func TestSubmitSerializesBeforeReturning(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK)
	endpoint, err := NewRouteEndpoint(srv.URL, "/save")
	require.NoError(t, err)

	data := map[string]any{"trial": 1}
	s := New(endpoint, WithHTTPClient(noKeepAliveClient(t)))
	s.Submit(context.Background(), "a.json", data)
	data["trial"] = 2
	s.Wait()

	reqs := srv.received()
	require.Len(t, reqs, 1)
	require.JSONEq(t, `{"filename":"a.json","filedata":{"trial":1}}`, string(reqs[0].body))
}

func TestSubmitIgnoresCallerCancellation(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK)
	endpoint, err := NewRouteEndpoint(srv.URL, "/save")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	s := New(endpoint, WithHTTPClient(noKeepAliveClient(t)))
	s.Submit(ctx, "late.json", "data")
	cancel()
	s.Wait()

	require.Len(t, srv.received(), 1)
}

func TestSubmitNetworkFailureIsSilent(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	endpoint, err := NewRouteEndpoint(url, "/save")
	require.NoError(t, err)

	failed := metrics.SubmissionsSentTotal.WithLabelValues(metrics.SubmitResultTransport)
	before := testutil.ToFloat64(failed)

	s := New(endpoint, WithHTTPClient(noKeepAliveClient(t)))
	require.NotPanics(t, func() {
		s.Submit(context.Background(), "lost.json", map[string]int{"trial": 1})
		s.Wait()
	})
	require.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestSubmitServerErrorIsSilent(t *testing.T) {
	srv := newRecordingServer(t, http.StatusInternalServerError)
	endpoint, err := NewRouteEndpoint(srv.URL, "/save")
	require.NoError(t, err)

	rejected := metrics.SubmissionsSentTotal.WithLabelValues(metrics.SubmitResultHTTPStatus)
	before := testutil.ToFloat64(rejected)

	s := New(endpoint, WithHTTPClient(noKeepAliveClient(t)))
	s.Submit(context.Background(), "x.json", 1)
	s.Wait()

	require.Len(t, srv.received(), 1, "no retry")
	require.Equal(t, before+1, testutil.ToFloat64(rejected))
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func TestSubmitRecoversFromClientPanic(t *testing.T) {
	endpoint, err := NewRouteEndpoint("http://study.local", "/save")
	require.NoError(t, err)

	s := New(endpoint, WithHTTPClient(doerFunc(func(*http.Request) (*http.Response, error) {
		panic("transport exploded")
	})))
	require.NotPanics(t, func() {
		s.Submit(context.Background(), "x.json", 1)
		s.Wait()
	})
}

func TestSubmitDropsUnencodableData(t *testing.T) {
	endpoint, err := NewRouteEndpoint("http://study.local", "/save")
	require.NoError(t, err)

	encodeErrors := metrics.SubmissionsSentTotal.WithLabelValues(metrics.SubmitResultEncode)
	before := testutil.ToFloat64(encodeErrors)

	s := New(endpoint, WithHTTPClient(doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("must not be called")
	})))
	s.Submit(context.Background(), "x.json", make(chan int))
	s.Wait()

	require.Equal(t, before+1, testutil.ToFloat64(encodeErrors))
}
