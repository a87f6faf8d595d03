// Package world defines the game-world bridge the dispatcher and zone guard
// consume: polled chat posts and block hits, chat output, and block state
// reads and writes.
package world

import (
	"context"
	"fmt"
)

// Pos is a block position.
type Pos struct {
	X, Y, Z int
}

// String returns "x,y,z".
func (p Pos) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

// Below returns the position one block down.
func (p Pos) Below() Pos {
	return Pos{X: p.X, Y: p.Y - 1, Z: p.Z}
}

// Above returns the position one block up.
func (p Pos) Above() Pos {
	return Pos{X: p.X, Y: p.Y + 1, Z: p.Z}
}

// Block is a block type with its data value.
type Block struct {
	ID   int
	Data int
}

// ChatPost is a chat message from an entity.
type ChatPost struct {
	EntityID int
	Message  string
}

// BlockHit is a block interaction by an entity.
type BlockHit struct {
	Pos      Pos
	Face     int
	EntityID int
}

// Bridge is a connection to a game world. Poll calls drain the pending
// events; each event is returned once.
type Bridge interface {
	PollChat(ctx context.Context) ([]ChatPost, error)
	PollBlockHits(ctx context.Context) ([]BlockHit, error)
	PostChat(ctx context.Context, msg string) error
	Block(ctx context.Context, pos Pos) (Block, error)
	SetBlock(ctx context.Context, pos Pos, b Block) error
	EntityName(ctx context.Context, entityID int) (string, error)
}
