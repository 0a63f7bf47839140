package services

// Publisher fans a change event out to every viewer subscribed to the
// basket code. Implemented by realtime.Hub; wired in at startup, before
// the server accepts requests.
type Publisher interface {
	Publish(code, event string, data any)
}

var publisher Publisher

// SetPublisher installs the broadcast sink for mutation events. Safe to
// leave unset; events are then dropped.
func SetPublisher(p Publisher) {
	publisher = p
}

// publish emits a change event after a successful commit. Broadcasting is
// best-effort: it runs outside the transaction and its outcome never
// affects the mutation result.
func publish(code, event string, data any) {
	if publisher != nil {
		publisher.Publish(code, event, data)
	}
}
