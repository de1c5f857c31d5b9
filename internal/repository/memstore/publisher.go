package memstore

import "sync"

// Event is one message captured by Publisher
type Event struct {
	Subject string
	Data    interface{}
}

// Publisher records published events instead of sending them
type Publisher struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (p *Publisher) Publish(subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, Event{Subject: subject, Data: data})
	return nil
}

func (p *Publisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// Subjects lists the subjects in publish order
func (p *Publisher) Subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Subject)
	}
	return out
}
