package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventStateInit     EventType = "state_init"
	EventStateRegister EventType = "state_register"
	EventStateStop     EventType = "state_stop"
	EventDispatch      EventType = "dispatch"
	EventFormSend      EventType = "form_send"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// StateEvent reports init, registration or stop of a state.
type StateEvent struct {
	EventBase
	State string `json:"state"`
}

// DispatchEvent reports one dispatch call.
type DispatchEvent struct {
	EventBase
	State   string `json:"state"`
	Action  string `json:"action"`
	Handled bool   `json:"handled"` // the primary dispatcher had the action
	Mixins  int    `json:"mixins"`  // mixin handlers invoked
}

// SendEvent reports a form submission triggered through the loader.
type SendEvent struct {
	EventBase
	Tag    string   `json:"tag,omitempty"`
	Save   bool     `json:"save"`
	States []string `json:"states,omitempty"`
	Err    error    `json:"-"`
}

// LifecycleHooks defines callbacks for observability.
type LifecycleHooks struct {
	OnInit     func(*StateEvent)
	OnRegister func(*StateEvent)
	OnStop     func(*StateEvent)
	OnDispatch func(*DispatchEvent)
	OnSend     func(*SendEvent)
}

// NewEventBase stamps an event of the given type.
func NewEventBase(t EventType) EventBase {
	return EventBase{Timestamp: time.Now(), Type: t}
}

// MergeHooks chains several hook sets; callbacks run in argument order.
func MergeHooks(all ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range all {
		out.OnInit = chain(out.OnInit, h.OnInit)
		out.OnRegister = chain(out.OnRegister, h.OnRegister)
		out.OnStop = chain(out.OnStop, h.OnStop)
		out.OnDispatch = chain(out.OnDispatch, h.OnDispatch)
		out.OnSend = chain(out.OnSend, h.OnSend)
	}
	return out
}

func chain[E any](a, b func(E)) func(E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(e E) {
		a(e)
		b(e)
	}
}
