package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReminderMetrics counts outbound reminders and inbound replies.
type ReminderMetrics struct {
	sent    *prometheus.CounterVec
	failed  *prometheus.CounterVec
	inbound *prometheus.CounterVec
}

func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	if reg == nil {
		return &ReminderMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_sent_total",
		Help:      "Reminder messages accepted by the SMS provider.",
	}, []string{"type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_failed_total",
		Help:      "Reminder messages that could not be sent.",
	}, []string{"type"})
	inbound := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inbound_messages_total",
		Help:      "Inbound SMS replies by classified action.",
	}, []string{"action"})
	reg.MustRegister(sent, failed, inbound)
	return &ReminderMetrics{sent: sent, failed: failed, inbound: inbound}
}

func (m *ReminderMetrics) IncSent(reminderType string) {
	if m == nil || m.sent == nil {
		return
	}
	m.sent.WithLabelValues(normalizeLabel(reminderType)).Inc()
}

func (m *ReminderMetrics) IncFailed(reminderType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(reminderType)).Inc()
}

func (m *ReminderMetrics) IncInbound(action string) {
	if m == nil || m.inbound == nil {
		return
	}
	m.inbound.WithLabelValues(normalizeLabel(action)).Inc()
}
