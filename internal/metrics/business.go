package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты отправки данных со стороны клиента.
const (
	SubmitResultSent       = "sent"
	SubmitResultEncode     = "encode_error"
	SubmitResultTransport  = "transport_error"
	SubmitResultHTTPStatus = "http_error"
)

var (
	listsStarted = promauto.NewCounter(
		prometheusCounterOpts("survey_lists_started_total", "Total number of stimulus lists handed out"),
	)
	listsCompleted = promauto.NewCounter(
		prometheusCounterOpts("survey_lists_completed_total", "Total number of stimulus lists completed"),
	)
	submissionsReceived = promauto.NewCounter(
		prometheusCounterOpts("survey_submissions_received_total", "Total number of response files stored"),
	)
	countsResets = promauto.NewCounter(
		prometheusCounterOpts("survey_counts_resets_total", "Total number of list counter resets"),
	)

	// SubmissionsSentTotal исходы отправок данных со стороны клиента
	SubmissionsSentTotal = promauto.NewCounterVec(
		prometheusCounterOpts("survey_submissions_sent_total", "Client side submissions by outcome"),
		[]string{"result"},
	)
)

// IncListsStarted увеличивает счётчик выданных списков.
func IncListsStarted() {
	listsStarted.Inc()
}

// IncListsCompleted увеличивает счётчик завершённых списков.
func IncListsCompleted() {
	listsCompleted.Inc()
}

// IncSubmissionsReceived увеличивает счётчик сохранённых файлов ответов.
func IncSubmissionsReceived() {
	submissionsReceived.Inc()
}

// IncCountsResets увеличивает счётчик сбросов.
func IncCountsResets() {
	countsResets.Inc()
}

// IncSubmissionsSent учитывает исход одной отправки данных клиентом.
func IncSubmissionsSent(result string) {
	SubmissionsSentTotal.WithLabelValues(result).Inc()
}

func prometheusCounterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Name: name,
		Help: help,
	}
}
