package topicmgr

// Topic is a registered pub/sub channel.
type Topic interface {
	Name() string
	// Module returns the owning module, empty for framework topics.
	Module() string
	Description() string
	Example() string
	Metadata() map[string]any
	Scope() TopicScope
}

// TopicScope says whether a topic belongs to the framework or to a module.
type TopicScope string

const (
	ScopeFramework TopicScope = "framework"
	ScopeModule    TopicScope = "module"
)

// TopicConfig describes a topic to define.
type TopicConfig struct {
	Name        string         `json:"name"`
	Module      string         `json:"module"`
	Description string         `json:"description"`
	Example     string         `json:"example"`
	Metadata    map[string]any `json:"metadata"`
}

// TypedTopic is the Topic implementation returned by the Define functions.
type TypedTopic struct {
	name        string
	module      string
	description string
	example     string
	metadata    map[string]any
	scope       TopicScope
}

var _ Topic = (*TypedTopic)(nil)

// DefineFramework creates a framework topic. Any module in cfg is ignored.
func DefineFramework(cfg TopicConfig) Topic {
	return newTopic(cfg, "", ScopeFramework)
}

// DefineModule creates a topic owned by cfg.Module.
func DefineModule(cfg TopicConfig) Topic {
	return newTopic(cfg, cfg.Module, ScopeModule)
}

func newTopic(cfg TopicConfig, module string, scope TopicScope) *TypedTopic {
	return &TypedTopic{
		name:        cfg.Name,
		module:      module,
		description: cfg.Description,
		example:     cfg.Example,
		metadata:    cfg.Metadata,
		scope:       scope,
	}
}

func (t *TypedTopic) Name() string        { return t.name }
func (t *TypedTopic) Module() string      { return t.module }
func (t *TypedTopic) Description() string { return t.description }
func (t *TypedTopic) Example() string     { return t.example }
func (t *TypedTopic) Scope() TopicScope   { return t.scope }
func (t *TypedTopic) String() string      { return t.name }

// Metadata returns a copy of the topic's metadata.
func (t *TypedTopic) Metadata() map[string]any {
	out := make(map[string]any, len(t.metadata))
	for k, v := range t.metadata {
		out[k] = v
	}
	return out
}
