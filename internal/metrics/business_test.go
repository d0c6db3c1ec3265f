package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestBusinessCounters(t *testing.T) {
	beforeStarted := testutil.ToFloat64(listsStarted)
	IncListsStarted()
	require.Equal(t, beforeStarted+1, testutil.ToFloat64(listsStarted))

	beforeCompleted := testutil.ToFloat64(listsCompleted)
	IncListsCompleted()
	require.Equal(t, beforeCompleted+1, testutil.ToFloat64(listsCompleted))

	beforeReceived := testutil.ToFloat64(submissionsReceived)
	IncSubmissionsReceived()
	require.Equal(t, beforeReceived+1, testutil.ToFloat64(submissionsReceived))

	beforeResets := testutil.ToFloat64(countsResets)
	IncCountsResets()
	require.Equal(t, beforeResets+1, testutil.ToFloat64(countsResets))
}

func TestSubmissionsSentByResult(t *testing.T) {
	sent := SubmissionsSentTotal.WithLabelValues(SubmitResultSent)
	failed := SubmissionsSentTotal.WithLabelValues(SubmitResultTransport)
	beforeSent, beforeFailed := testutil.ToFloat64(sent), testutil.ToFloat64(failed)

	IncSubmissionsSent(SubmitResultTransport)

	require.Equal(t, beforeSent, testutil.ToFloat64(sent))
	require.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
}
