// Package worldtest provides an in-memory world.Bridge for tests.
package worldtest

import (
	"context"
	"fmt"
	"sync"

	"mercator-hq/wardgate/pkg/world"
)

// World is an in-memory world.Bridge. The zero value is not usable; call
// New.
type World struct {
	mu       sync.Mutex
	blocks   map[world.Pos]world.Block
	names    map[int]string
	chat     []world.ChatPost
	hits     []world.BlockHit
	posted   []string
	setCalls int

	// Err, when set, is returned by every call.
	Err error
}

// New creates an empty world.
func New() *World {
	return &World{
		blocks: make(map[world.Pos]world.Block),
		names:  make(map[int]string),
	}
}

// AddPlayer registers entityID under name.
func (w *World) AddPlayer(entityID int, name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.names[entityID] = name
}

// Put sets a block without counting it as a SetBlock call.
func (w *World) Put(pos world.Pos, b world.Block) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blocks[pos] = b
}

// Say queues a chat post from entityID.
func (w *World) Say(entityID int, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chat = append(w.chat, world.ChatPost{EntityID: entityID, Message: msg})
}

// Hit queues a block hit by entityID.
func (w *World) Hit(entityID int, pos world.Pos) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hits = append(w.hits, world.BlockHit{Pos: pos, EntityID: entityID})
}

// Posted returns every chat message posted so far.
func (w *World) Posted() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.posted...)
}

// BlockAt returns the block at pos.
func (w *World) BlockAt(pos world.Pos) world.Block {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.blocks[pos]
}

// SetCalls returns the number of SetBlock calls.
func (w *World) SetCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.setCalls
}

// PollChat implements world.Bridge.
func (w *World) PollChat(ctx context.Context) ([]world.ChatPost, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return nil, w.Err
	}
	out := w.chat
	w.chat = nil
	return out, nil
}

// PollBlockHits implements world.Bridge.
func (w *World) PollBlockHits(ctx context.Context) ([]world.BlockHit, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return nil, w.Err
	}
	out := w.hits
	w.hits = nil
	return out, nil
}

// PostChat implements world.Bridge.
func (w *World) PostChat(ctx context.Context, msg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return w.Err
	}
	w.posted = append(w.posted, msg)
	return nil
}

// Block implements world.Bridge.
func (w *World) Block(ctx context.Context, pos world.Pos) (world.Block, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return world.Block{}, w.Err
	}
	return w.blocks[pos], nil
}

// SetBlock implements world.Bridge.
func (w *World) SetBlock(ctx context.Context, pos world.Pos, b world.Block) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return w.Err
	}
	w.blocks[pos] = b
	w.setCalls++
	return nil
}

// EntityName implements world.Bridge.
func (w *World) EntityName(ctx context.Context, entityID int) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Err != nil {
		return "", w.Err
	}
	name, ok := w.names[entityID]
	if !ok {
		return "", fmt.Errorf("unknown entity %d", entityID)
	}
	return name, nil
}

var _ world.Bridge = (*World)(nil)
