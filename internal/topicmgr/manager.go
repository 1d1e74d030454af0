package topicmgr

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

type entry struct {
	topic        Topic
	registeredAt time.Time
}

// Manager is a concurrency-safe topic catalogue.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewManager() *Manager {
	return &Manager{entries: make(map[string]entry)}
}

// Register validates and adds a topic.
func (m *Manager) Register(topic Topic) error {
	if err := Validate(topic); err != nil {
		te := &TopicError{Type: ErrorValidationFailed, Message: "topic validation failed", Cause: err}
		if topic != nil {
			te.Topic, te.Module = topic.Name(), topic.Module()
		}
		return te
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[topic.Name()]; exists {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   topic.Name(),
			Module:  topic.Module(),
			Message: fmt.Sprintf("topic already registered: %s", topic.Name()),
		}
	}
	m.entries[topic.Name()] = entry{topic: topic, registeredAt: time.Now()}
	return nil
}

// RegisterAll registers topics, skipping ones that are already present.
func (m *Manager) RegisterAll(topics ...Topic) error {
	for _, t := range topics {
		err := m.Register(t)
		var te *TopicError
		if errors.As(err, &te) && te.Type == ErrorDuplicateRegistration {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// MustRegister panics if topic cannot be registered.
func (m *Manager) MustRegister(topic Topic) {
	if err := m.Register(topic); err != nil {
		panic(err)
	}
}

// Get looks a topic up by name.
func (m *Manager) Get(name string) (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[name]
	return e.topic, ok
}

// Require returns the named topic or a not-found error.
func (m *Manager) Require(name string) (Topic, error) {
	if t, ok := m.Get(name); ok {
		return t, nil
	}
	return nil, &TopicError{Type: ErrorTopicNotFound, Topic: name, Message: fmt.Sprintf("topic not registered: %s", name)}
}

// List returns every topic sorted by name.
func (m *Manager) List() []Topic {
	return m.filter(func(Topic) bool { return true })
}

// ListByModule returns the topics owned by module, sorted by name.
func (m *Manager) ListByModule(module string) []Topic {
	return m.filter(func(t Topic) bool { return t.Module() == module })
}

// ListByScope returns the topics of one scope, sorted by name.
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	return m.filter(func(t Topic) bool { return t.Scope() == scope })
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats summarizes the catalogue.
type Stats struct {
	TotalTopics     int            `json:"total_topics"`
	FrameworkTopics int            `json:"framework_topics"`
	ModuleTopics    int            `json:"module_topics"`
	ModuleBreakdown map[string]int `json:"module_breakdown"`
}

func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{TotalTopics: len(m.entries), ModuleBreakdown: map[string]int{}}
	for _, e := range m.entries {
		switch e.topic.Scope() {
		case ScopeFramework:
			s.FrameworkTopics++
		case ScopeModule:
			s.ModuleTopics++
			s.ModuleBreakdown[e.topic.Module()]++
		}
	}
	return s
}

func (m *Manager) filter(keep func(Topic) bool) []Topic {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Topic, 0, len(m.entries))
	for _, e := range m.entries {
		if keep(e.topic) {
			out = append(out, e.topic)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
