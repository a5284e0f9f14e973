package messaging

import (
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestHeaderCarrier(t *testing.T) {
	msg := &kafka.Message{}
	c := headerCarrier{msg: msg}

	c.Set("traceparent", "a")
	c.Set(EventTypeHeader, "order.placed")
	c.Set("traceparent", "b")

	if got := c.Get("traceparent"); got != "b" {
		t.Errorf("expected overwritten value b, got %q", got)
	}
	if got := header(msg, EventTypeHeader); got != "order.placed" {
		t.Errorf("expected event type, got %q", got)
	}
	if len(c.Keys()) != 2 {
		t.Errorf("expected 2 keys, got %v", c.Keys())
	}
	if c.Get("missing") != "" {
		t.Error("expected empty value for missing header")
	}
}

func TestEncode(t *testing.T) {
	msg, err := encode("42", "order.placed", map[string]int{"order_id": 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(msg.Key) != "42" {
		t.Errorf("expected key 42, got %q", msg.Key)
	}
	if string(msg.Value) != `{"order_id":42}` {
		t.Errorf("unexpected payload %s", msg.Value)
	}
	if got := header(&msg, EventTypeHeader); got != "order.placed" {
		t.Errorf("expected event type header, got %q", got)
	}

	if _, err := encode("1", "bad", make(chan int)); err == nil {
		t.Error("expected error for unencodable event")
	}
}

func TestSpanAttrs(t *testing.T) {
	msg := &kafka.Message{Key: []byte("7")}
	setHeader(msg, EventTypeHeader, "order.status_changed")

	attrs := spanAttrs(OrderEventsTopic, "send", msg)
	found := false
	for _, a := range attrs {
		if string(a.Key) == "messaging.event_type" && a.Value.AsString() == "order.status_changed" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected event type attribute in %v", attrs)
	}
}
