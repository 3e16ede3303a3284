package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	pushesEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pushes_enqueued_total",
			Help: "Prepared push messages enqueued by the scheduler, by kind (prompt/profile).",
		},
		[]string{"kind"},
	)

	pushesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pushes_sent_total",
			Help: "Outbound Telegram calls made by the push consumer, by method.",
		},
		[]string{"method"},
	)

	consumedMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consumer_messages_total",
			Help: "Messages pulled from queues, by queue and outcome (ack/drop).",
		},
		[]string{"queue", "outcome"},
	)

	duplicateUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duplicate_updates_total",
			Help: "Inbound updates skipped because their update_id was already processed.",
		},
	)

	selectorResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_pool_resets_total",
			Help: "Times a user's seen-mark set was cleared after pool exhaustion.",
		},
	)

	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Cache lookups by cache name and result (hit/miss).",
		},
		[]string{"cache", "result"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			pushesEnqueued, pushesSent, consumedMessages,
			duplicateUpdates, selectorResets, cacheRequests,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncPushEnqueued(kind string) { pushesEnqueued.WithLabelValues(norm(kind)).Inc() }
func IncPushSent(method string)   { pushesSent.WithLabelValues(norm(method)).Inc() }
func IncDuplicateUpdate()         { duplicateUpdates.Inc() }
func IncSelectorReset()           { selectorResets.Inc() }

func IncCacheRequest(cache, res string) {
	cacheRequests.WithLabelValues(norm(cache), norm(res)).Inc()
}

func IncConsumed(queue, outcome string) {
	consumedMessages.WithLabelValues(queue, norm(outcome)).Inc()
}
