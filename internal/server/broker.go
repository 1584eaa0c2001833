package server

import (
	"encoding/json"
	"sync"
)

// Event is the payload published to a quiz's lobby subscribers. Only
// membership and lifecycle changes go through here; individual guesses
// are never pushed.
type Event struct {
	Type            string `json:"type"`
	ParticipantName string `json:"participantName,omitempty"`
	Status          string `json:"status,omitempty"`
}

// Broker is an in-process pub/sub for SSE events, keyed by quiz ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[int64]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[int64]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the
// given quiz.
func (b *Broker) Subscribe(quizID int64) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[quizID] == nil {
		b.subs[quizID] = make(map[chan []byte]struct{})
	}
	b.subs[quizID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the quiz's subscribers.
func (b *Broker) Unsubscribe(quizID int64, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[quizID], ch)
	if len(b.subs[quizID]) == 0 {
		delete(b.subs, quizID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given quiz.
func (b *Broker) Publish(quizID int64, event Event) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[quizID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
