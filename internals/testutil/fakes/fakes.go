// Package fakes holds recording doubles for the audit and event sinks.
package fakes

import (
	"context"
	"sync"

	auditService "horseclub_backend/internals/features/audit/logs/service"
	notifService "horseclub_backend/internals/features/notifications/service"
)

type Auditor struct {
	mu      sync.Mutex
	Entries []auditService.Entry
}

func (a *Auditor) Log(_ context.Context, e auditService.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, e)
}

func (a *Auditor) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Entries)
}

// Actions lists the logged actions as "entity_type:action".
func (a *Auditor) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.Entries))
	for _, e := range a.Entries {
		out = append(out, e.EntityType+":"+e.Action)
	}
	return out
}

type Publisher struct {
	mu     sync.Mutex
	Events []notifService.Event
}

func (p *Publisher) Publish(_ context.Context, e notifService.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, e)
}

func (p *Publisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.Key)
	}
	return out
}
