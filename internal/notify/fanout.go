package notify

import (
	"context"
	"log"
	"time"
)

// Target is one resolved delivery destination. Addresses maps a provider
// name to the recipient id that provider understands; a target without an
// address for some provider is simply skipped by it.
type Target struct {
	Name      string
	Addresses map[string]string
}

// Directory resolves notification recipients. Backed by the user store;
// this package only sees the lookup capability.
type Directory interface {
	Targets(ctx context.Context, courseKey string) ([]Target, error)
	IsRegistered(ctx context.Context, name string) (bool, error)
}

// Provider is one delivery channel. Send must attempt every target and
// fail independently per target: one bad destination never aborts the rest
// of the batch.
type Provider interface {
	Name() string
	Send(ctx context.Context, title, body string, targets []Target) error
}

// Event is one detected cancellation.
type Event struct {
	CourseKey string
	Subject   string
	Start     time.Time
}

// Fanout dispatches cancellation events through every registered provider.
// The provider set is fixed at startup; dispatch is best effort, delivery
// errors are observed only via logs.
type Fanout struct {
	directory Directory
	providers []Provider
	title     string
	now       func() time.Time
}

func NewFanout(directory Directory, providers []Provider, now func() time.Time) *Fanout {
	if now == nil {
		now = time.Now
	}
	return &Fanout{
		directory: directory,
		providers: providers,
		title:     "Stundenplan",
		now:       now,
	}
}

// Dispatch resolves the recipients for the event's course key and sends the
// rendered message through every provider. Never returns an error: one
// provider or target failing must not affect the others, so failures are
// logged and swallowed here.
func (f *Fanout) Dispatch(ctx context.Context, ev Event) {
	targets, err := f.directory.Targets(ctx, ev.CourseKey)
	if err != nil {
		log.Printf("notify: resolve targets for %q: %v", ev.CourseKey, err)
		return
	}

	registered := targets[:0:0]
	for _, t := range targets {
		ok, err := f.directory.IsRegistered(ctx, t.Name)
		if err != nil {
			log.Printf("notify: registration check for %q: %v", t.Name, err)
			continue
		}
		if !ok {
			log.Printf("notify: skipping unregistered target %q", t.Name)
			continue
		}
		registered = append(registered, t)
	}
	if len(registered) == 0 {
		return
	}

	body := BuildMessage(ev.Subject, ev.Start, f.now())
	for _, p := range f.providers {
		if err := p.Send(ctx, f.title, body, registered); err != nil {
			log.Printf("notify: provider %s: %v", p.Name(), err)
		}
	}
}
