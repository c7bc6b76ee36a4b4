package ports

// Scope is the view scope a set of states is bound to.
// Implementations are not expected to be safe for concurrent use: the loader
// and the states run on the host's single event loop.
type Scope interface {
	// Get returns the property stored under key.
	Get(key string) (any, bool)

	// Set stores a writable property. Writing a read-only property fails.
	Set(key string, value any) error

	// Define stores a read-only property. Redefining a read-only property fails.
	Define(key string, value any) error

	// Delete removes a property, read-only or not.
	Delete(key string)

	// Emit delivers value to every handler subscribed to event, in subscription order.
	Emit(event string, value any)

	// On subscribes handler to event and returns a function cancelling the subscription.
	On(event string, handler func(value any)) (cancel func())

	// SendForm submits the form with an optional tag.
	SendForm(tag string) error
}

// Trigger is a method installed on the scope, for instance the send and show triggers.
type Trigger func(args ...any) error
