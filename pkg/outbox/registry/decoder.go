package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/qyve/storefront/pkg/enums"
	"github.com/qyve/storefront/pkg/outbox"
	"github.com/qyve/storefront/pkg/outbox/payloads"
)

type decoderFunc func(payload json.RawMessage) (interface{}, error)

type registryKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry stores versioned payload decoders for consumers.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	registry map[registryKey]decoderFunc
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{registry: make(map[registryKey]decoderFunc)}
}

// NewConsumerDecoders registers the current version of every published payload.
func NewConsumerDecoders() *DecoderRegistry {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderPaid, outbox.CurrentVersion, decodeInto[payloads.OrderPaidEvent])
	reg.Register(enums.EventOrderStatusChanged, outbox.CurrentVersion, decodeInto[payloads.OrderStatusChangedEvent])
	reg.Register(enums.EventStockShortfall, outbox.CurrentVersion, decodeInto[payloads.StockShortfallEvent])
	reg.Register(enums.EventNewsletterSubscribed, outbox.CurrentVersion, decodeInto[payloads.NewsletterSubscribedEvent])
	return reg
}

func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder decoderFunc) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.registry[registryKey{eventType: eventType, version: version}] = decoder
}

// Decode runs the decoder registered for the event type and version.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if decoder, ok := r.registry[registryKey{eventType: eventType, version: version}]; ok {
		return decoder(payload)
	}
	return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
}

func decodeInto[T any](payload json.RawMessage) (interface{}, error) {
	out := new(T)
	if err := json.Unmarshal(payload, out); err != nil {
		return nil, err
	}
	return out, nil
}
