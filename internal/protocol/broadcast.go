package protocol

// Broadcast event names shared with the client.
const (
	EventBattleEnd            = "BATTLE_END"
	EventGameEnd              = "GAME_END"
	EventNextRound            = "NEXT_ROUND"
	EventReadyForBattleUpdate = "READY_FOR_BATTLE_UPDATE"
)

// Broadcaster delivers an event to every peer in a room. The wire
// implementation lives in internal/net/ws; the loopback below serves
// single-peer sessions and tests.
type Broadcaster interface {
	BroadcastToRoom(roomID, event string, payload any)
}

// BroadcasterFunc adapts a function into the Broadcaster interface.
type BroadcasterFunc func(roomID, event string, payload any)

func (f BroadcasterFunc) BroadcastToRoom(roomID, event string, payload any) {
	if f == nil {
		return
	}
	f(roomID, event, payload)
}

// LoopbackBroadcaster routes broadcasts to locally registered handlers
// instead of a wire send.
type LoopbackBroadcaster struct {
	handlers map[string][]func(roomID string, payload any)
}

func NewLoopbackBroadcaster() *LoopbackBroadcaster {
	return &LoopbackBroadcaster{handlers: make(map[string][]func(roomID string, payload any))}
}

// Handle registers a local handler for an event name.
func (b *LoopbackBroadcaster) Handle(event string, handler func(roomID string, payload any)) {
	b.handlers[event] = append(b.handlers[event], handler)
}

func (b *LoopbackBroadcaster) BroadcastToRoom(roomID, event string, payload any) {
	for _, handler := range b.handlers[event] {
		handler(roomID, payload)
	}
}
