package events

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/xadn01/finnepal/pkg/config"
	"github.com/xadn01/finnepal/prometheus"
)

func TestMain(m *testing.M) {
	prometheus.InitMetrics(&config.Config{Metrics: config.MetricsConfig{Prefix: "eventstest"}})
	os.Exit(m.Run())
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
	done   chan struct{}
}

func (r *recordingPublisher) Publish(topic string, event any) error {
	r.mu.Lock()
	r.topics = append(r.topics, topic)
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func TestTopic(t *testing.T) {
	Init(&config.KafkaConfig{TopicPrefix: "acct"})
	if got := Topic(TopicJournal); got != "acct.journal" {
		t.Errorf("Topic(journal) = %q, want acct.journal", got)
	}
	if got := Topic(TopicSales); got != "acct.sales" {
		t.Errorf("Topic(sales) = %q, want acct.sales", got)
	}
}

func TestInit_NoBrokersUsesNoop(t *testing.T) {
	Init(&config.KafkaConfig{TopicPrefix: "acct"})
	if _, ok := publisher.(noopPublisher); !ok {
		t.Errorf("publisher without brokers is %T, want noopPublisher", publisher)
	}
	// Emitting through the noop publisher must not panic or block.
	Emit(TopicJournal, JournalEvent{Event: "journal.posted"})
}

func TestEmit(t *testing.T) {
	rec := &recordingPublisher{done: make(chan struct{}, 1)}
	old := publisher
	publisher = rec
	defer func() { publisher = old }()
	topicPrefix = "acct"

	Emit(TopicSales, InvoiceEvent{Event: "invoice.sent", InvoiceID: 12})

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not published within 2s")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.topics) != 1 || rec.topics[0] != "acct.sales" {
		t.Errorf("published topics = %v, want [acct.sales]", rec.topics)
	}
	ev, ok := rec.events[0].(InvoiceEvent)
	if !ok {
		t.Fatalf("published event is %T, want InvoiceEvent", rec.events[0])
	}
	if ev.Event != "invoice.sent" || ev.InvoiceID != 12 {
		t.Errorf("published event = %+v", ev)
	}
}
