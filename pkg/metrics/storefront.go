package metrics

import "github.com/prometheus/client_golang/prometheus"

// Result labels shared by the storefront counters.
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultDuplicate = "duplicate"
	ResultIgnored   = "ignored"
)

// StorefrontMetrics counts checkout, webhook and fulfillment outcomes.
type StorefrontMetrics struct {
	checkoutSessions *prometheus.CounterVec
	webhookEvents    *prometheus.CounterVec
	ordersWritten    *prometheus.CounterVec
	stockShortfalls  prometheus.Counter
}

func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	m := &StorefrontMetrics{
		checkoutSessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sessions_total",
			Help:      "Payment sessions requested, by result and cart kind.",
		}, []string{"result", "cart"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Payment provider webhook deliveries, by event type and result.",
		}, []string{"event_type", "result"}),
		ordersWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_written_total",
			Help:      "Order writer outcomes.",
		}, []string{"result"}),
		stockShortfalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_shortfalls_total",
			Help:      "Order items recorded as backordered.",
		}),
	}
	reg.MustRegister(m.checkoutSessions, m.webhookEvents, m.ordersWritten, m.stockShortfalls)
	return m
}

func (m *StorefrontMetrics) CheckoutSession(result string, guest bool) {
	if m == nil || m.checkoutSessions == nil {
		return
	}
	cart := "persisted"
	if guest {
		cart = "guest"
	}
	m.checkoutSessions.WithLabelValues(normalizeLabel(result), cart).Inc()
}

func (m *StorefrontMetrics) WebhookEvent(eventType, result string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(result)).Inc()
}

func (m *StorefrontMetrics) OrderWritten(result string) {
	if m == nil || m.ordersWritten == nil {
		return
	}
	m.ordersWritten.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *StorefrontMetrics) StockShortfall(count int) {
	if m == nil || m.stockShortfalls == nil || count <= 0 {
		return
	}
	m.stockShortfalls.Add(float64(count))
}
