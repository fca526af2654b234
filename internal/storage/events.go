package storage

import "sync"

// EventKind names a change notification.
type EventKind string

const (
	EventProjectUpserted       EventKind = "project_upserted"
	EventProjectDeleted        EventKind = "project_deleted"
	EventIndexRebuilt          EventKind = "index_rebuilt"
	EventTagAdded              EventKind = "tag_added"
	EventTagRemoved            EventKind = "tag_removed"
	EventAutoTagDisabled       EventKind = "auto_tag_disabled"
	EventAutoTagEnabled        EventKind = "auto_tag_enabled"
	EventResourceRecorded      EventKind = "resource_recorded"
	EventResourceStatusChanged EventKind = "resource_status_changed"
	EventNoteSaved             EventKind = "note_saved"
)

// Event describes a committed change. Only the fields relevant to Kind are
// set.
type Event struct {
	Kind       EventKind
	ProjectID  string
	Path       string
	Tag        string
	ResourceID int64
	Status     string
	Count      int
}

// broker fans events out to subscribers. Handlers run synchronously on the
// writing goroutine after the transaction committed and the writer lock was
// released, so a handler may call back into the store.
type broker struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(Event)
}

func (b *broker) subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func(Event))
	}
	id := b.next
	b.next++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *broker) publish(events ...Event) {
	b.mu.RLock()
	subs := make([]func(Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	for _, ev := range events {
		for _, fn := range subs {
			fn(ev)
		}
	}
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	return s.events.subscribe(fn)
}
