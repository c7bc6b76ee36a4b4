package domain

// DefaultStateName is used when a state is built without an explicit name.
const DefaultStateName = "state"

// HostContextKey is the scope property under which the loader publishes its host context.
const HostContextKey = "ctx"

// Scope lifecycle events.
const (
	EventShow = "show"
	EventSend = "send"
)

// Actions dispatched in response to scope lifecycle events.
const (
	ActionOnShow = "onshow"
	ActionOnSend = "onsend"
)
