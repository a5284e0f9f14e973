package messaging

import (
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// EventTypeHeader names the header carrying the event type, so consumers
// can route without decoding the payload.
const EventTypeHeader = "event-type"

// headerCarrier adapts kafka headers to the otel TextMapCarrier interface.
type headerCarrier struct {
	msg *kafka.Message
}

func (c headerCarrier) Get(key string) string {
	return header(c.msg, key)
}

func (c headerCarrier) Set(key, value string) {
	setHeader(c.msg, key, value)
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, len(c.msg.Headers))
	for i, h := range c.msg.Headers {
		keys[i] = h.Key
	}
	return keys
}

func header(msg *kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func setHeader(msg *kafka.Message, key, value string) {
	for i, h := range msg.Headers {
		if h.Key == key {
			msg.Headers[i].Value = []byte(value)
			return
		}
	}
	msg.Headers = append(msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func spanAttrs(topic, operation string, msg *kafka.Message) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.MessagingSystemKafka,
		semconv.MessagingOperationName(operation),
		semconv.MessagingDestinationName(topic),
		semconv.MessagingKafkaMessageKey(string(msg.Key)),
	}
	if t := header(msg, EventTypeHeader); t != "" {
		attrs = append(attrs, attribute.String("messaging.event_type", t))
	}
	return attrs
}
