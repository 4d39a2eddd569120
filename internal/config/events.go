package config

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/movelane/payments/internal/models"
)

//go:embed events.yaml
var eventsFS embed.FS

// EventMapping resolves provider webhook event types to the transaction
// status they report. The mapping ships as embedded YAML so new provider
// event names can be reviewed as data, not code.
type EventMapping struct {
	PaymentEvents map[string]models.PaymentStatus `yaml:"payment_events"`
	RefundEvents  map[string]models.RefundStatus  `yaml:"refund_events"`
}

// LoadEventMapping parses the embedded event mapping.
func LoadEventMapping() (*EventMapping, error) {
	data, err := eventsFS.ReadFile("events.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded event mapping: %w", err)
	}

	var m EventMapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse event mapping YAML: %w", err)
	}

	if len(m.PaymentEvents) == 0 || len(m.RefundEvents) == 0 {
		return nil, fmt.Errorf("event mapping is incomplete: %d payment, %d refund event types",
			len(m.PaymentEvents), len(m.RefundEvents))
	}

	return &m, nil
}

// PaymentTarget returns the payment status an event type reports.
func (m *EventMapping) PaymentTarget(eventType string) (models.PaymentStatus, bool) {
	s, ok := m.PaymentEvents[eventType]
	return s, ok
}

// RefundTarget returns the refund status an event type reports.
func (m *EventMapping) RefundTarget(eventType string) (models.RefundStatus, bool) {
	s, ok := m.RefundEvents[eventType]
	return s, ok
}
