// Package interact runs the short, timeout-bound conversations a settings
// command holds with the administrator who invoked it.
package interact

import (
	"context"
	"sync"

	"guildconf/internal/chat"
)

// Waiter matches inbound gateway events against pending interactions. Each
// pending interaction consumes at most one event.
type Waiter struct {
	mu        sync.Mutex
	seq       uint64
	messages  map[uint64]*messageWait
	reactions map[uint64]*reactionWait
}

type messageWait struct {
	channelID string
	authorID  string
	ch        chan chat.Message
}

type reactionWait struct {
	messageID string
	userID    string
	emojis    []string
	ch        chan string
}

func NewWaiter() *Waiter {
	return &Waiter{
		messages:  make(map[uint64]*messageWait),
		reactions: make(map[uint64]*reactionWait),
	}
}

// PendingMessage is a registered wait for the next message of one author in
// one channel.
type PendingMessage struct {
	w  *Waiter
	id uint64
	ch chan chat.Message
}

// ExpectMessage registers interest before the prompt goes out so a fast
// reply cannot slip past.
func (w *Waiter) ExpectMessage(channelID, authorID string) *PendingMessage {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	wait := &messageWait{channelID: channelID, authorID: authorID, ch: make(chan chat.Message, 1)}
	w.messages[w.seq] = wait
	return &PendingMessage{w: w, id: w.seq, ch: wait.ch}
}

// Wait blocks until the message arrives or ctx ends. The registration is
// dropped either way.
func (p *PendingMessage) Wait(ctx context.Context) (chat.Message, error) {
	defer p.cancel()
	select {
	case msg := <-p.ch:
		return msg, nil
	case <-ctx.Done():
		return chat.Message{}, ctx.Err()
	}
}

func (p *PendingMessage) cancel() {
	p.w.mu.Lock()
	delete(p.w.messages, p.id)
	p.w.mu.Unlock()
}

// OfferMessage hands msg to the oldest matching wait. It reports whether the
// message was consumed, in which case it must not be treated as a command.
func (w *Waiter) OfferMessage(msg chat.Message) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, wait := w.oldestMessageWait(msg)
	if wait == nil {
		return false
	}
	delete(w.messages, id)
	wait.ch <- msg
	return true
}

func (w *Waiter) oldestMessageWait(msg chat.Message) (uint64, *messageWait) {
	var (
		bestID uint64
		best   *messageWait
	)
	for id, wait := range w.messages {
		if wait.channelID != msg.ChannelID || wait.authorID != msg.AuthorID {
			continue
		}
		if best == nil || id < bestID {
			bestID, best = id, wait
		}
	}
	return bestID, best
}

// PendingReaction is a registered wait for one user to react to one message
// with one of a fixed set of emoji.
type PendingReaction struct {
	w  *Waiter
	id uint64
	ch chan string
}

func (w *Waiter) ExpectReaction(messageID, userID string, emojis ...string) *PendingReaction {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	wait := &reactionWait{messageID: messageID, userID: userID, emojis: emojis, ch: make(chan string, 1)}
	w.reactions[w.seq] = wait
	return &PendingReaction{w: w, id: w.seq, ch: wait.ch}
}

// Wait returns the first accepted emoji.
func (p *PendingReaction) Wait(ctx context.Context) (string, error) {
	defer p.cancel()
	select {
	case emoji := <-p.ch:
		return emoji, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *PendingReaction) cancel() {
	p.w.mu.Lock()
	delete(p.w.reactions, p.id)
	p.w.mu.Unlock()
}

// OfferReaction reports whether the reaction settled a pending wait.
func (w *Waiter) OfferReaction(messageID, userID, emoji string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, wait := range w.reactions {
		if wait.messageID != messageID || wait.userID != userID || !contains(wait.emojis, emoji) {
			continue
		}
		delete(w.reactions, id)
		wait.ch <- emoji
		return true
	}
	return false
}

func (w *Waiter) pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages) + len(w.reactions)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
