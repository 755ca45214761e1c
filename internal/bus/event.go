package bus

import "time"

// Event represents a domain event published on the bus.
//
// Kinds used by the client:
//
//	session.selected    ActiveChat payload, a chat became active
//	session.cleared     no payload, session returned to idle
//	sync.delta          sync.Delta payload, full replacement log; may
//	                    arrive while the selection is still in flight
//	sync.info           *api.ChatInfo payload, applied every tick
//	notify.message      Notification payload, inbound message while active
//	directory.updated   []api.ChatSummary payload, wholesale snapshot
//	directory.reload    no payload, chat list must be re-fetched
//	presence.updated    no payload, heartbeat accepted by the server
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Notification is the payload for notify.message events. Derived per
// delta, never stored.
type Notification struct {
	ChatName string
	Preview  string
	IsImage  bool
}
