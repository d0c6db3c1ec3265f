package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveHTTPRequest(t *testing.T) {
	route := "/submissions/{filename}"
	method := http.MethodGet

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(method, route, "200"))
	ObserveHTTPRequest(method, route, http.StatusOK, 25*time.Millisecond, 0)
	require.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(method, route, "200")))
}

func TestObserveHTTPRequestRecordsSize(t *testing.T) {
	route := "/save"
	method := http.MethodPost

	ObserveHTTPRequest(method, route, http.StatusOK, time.Millisecond, 2048)
	require.GreaterOrEqual(t, testutil.CollectAndCount(HTTPRequestSize, "survey_http_request_size_bytes"), 1)
}
