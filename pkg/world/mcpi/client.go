// Package mcpi implements world.Bridge over the Minecraft: Pi Edition text
// protocol (also served by RaspberryJuice and compatible plugins).
//
// Each request is one line, "command(arg,arg,...)\n". Queries are answered
// with one line; commands are not answered. The server replies "Fail" to a
// query it cannot satisfy.
package mcpi

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"mercator-hq/wardgate/pkg/world"
)

// DefaultAddress is the usual Minecraft Pi API endpoint.
const DefaultAddress = "localhost:4711"

// ErrFail is returned when the server answers "Fail".
var ErrFail = errors.New("mcpi: server returned Fail")

// Config contains connection settings.
type Config struct {
	// Address is host:port of the API server.
	// Default: "localhost:4711"
	Address string

	// DialTimeout bounds connection establishment.
	// Default: 5 seconds
	DialTimeout time.Duration

	// IOTimeout bounds each request and response.
	// Default: 2 seconds
	IOTimeout time.Duration
}

// ProtocolError reports a response that could not be parsed.
type ProtocolError struct {
	Command  string
	Response string
	Cause    error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("mcpi: bad response to %s: %q: %v", e.Command, e.Response, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// Client is a connection to the API server. It is safe for concurrent use;
// requests are serialised.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	config Config
	logger *slog.Logger
}

// Dial connects to the server at config.Address.
func Dial(ctx context.Context, config Config) (*Client, error) {
	if config.Address == "" {
		config.Address = DefaultAddress
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.IOTimeout <= 0 {
		config.IOTimeout = 2 * time.Second
	}

	dialer := net.Dialer{Timeout: config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", config.Address)
	if err != nil {
		return nil, fmt.Errorf("mcpi: dial %s: %w", config.Address, err)
	}

	c := NewClient(conn, config)
	c.logger.Info("connected to world", "address", config.Address)
	return c, nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn, config Config) *Client {
	if config.IOTimeout <= 0 {
		config.IOTimeout = 2 * time.Second
	}
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		config: config,
		logger: slog.Default().With("component", "world.mcpi"),
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// PollChat implements world.Bridge.
func (c *Client) PollChat(ctx context.Context) ([]world.ChatPost, error) {
	const cmd = "events.chat.posts"
	resp, err := c.query(ctx, cmd)
	if err != nil {
		return nil, err
	}
	posts, err := splitChatPosts(resp)
	if err != nil {
		return nil, &ProtocolError{Command: cmd, Response: resp, Cause: err}
	}
	return posts, nil
}

// splitChatPosts parses "id,message|id,message". The separator is not
// escaped, so an item that does not start with a numeric id continues the
// previous message.
func splitChatPosts(resp string) ([]world.ChatPost, error) {
	var posts []world.ChatPost
	for _, item := range splitEvents(resp) {
		if item == "" {
			continue
		}
		idStr, msg, ok := strings.Cut(item, ",")
		id, err := strconv.Atoi(idStr)
		if ok && err == nil {
			posts = append(posts, world.ChatPost{EntityID: id, Message: msg})
			continue
		}
		if len(posts) == 0 {
			return nil, fmt.Errorf("chat post %q has no entity id", item)
		}
		posts[len(posts)-1].Message += "|" + item
	}
	return posts, nil
}

// PollBlockHits implements world.Bridge.
func (c *Client) PollBlockHits(ctx context.Context) ([]world.BlockHit, error) {
	const cmd = "events.block.hits"
	resp, err := c.query(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var hits []world.BlockHit
	for _, item := range splitEvents(resp) {
		n, err := parseInts(item, 5)
		if err != nil {
			return nil, &ProtocolError{Command: cmd, Response: resp, Cause: err}
		}
		hits = append(hits, world.BlockHit{
			Pos:      world.Pos{X: n[0], Y: n[1], Z: n[2]},
			Face:     n[3],
			EntityID: n[4],
		})
	}
	return hits, nil
}

// PostChat implements world.Bridge. Newlines are flattened to spaces.
func (c *Client) PostChat(ctx context.Context, msg string) error {
	msg = strings.NewReplacer("\r", " ", "\n", " ").Replace(msg)
	return c.send(ctx, "chat.post", msg)
}

// Block implements world.Bridge.
func (c *Client) Block(ctx context.Context, pos world.Pos) (world.Block, error) {
	const cmd = "world.getBlockWithData"
	resp, err := c.query(ctx, cmd, pos.X, pos.Y, pos.Z)
	if err != nil {
		return world.Block{}, err
	}
	n, err := parseInts(resp, 2)
	if err != nil {
		return world.Block{}, &ProtocolError{Command: cmd, Response: resp, Cause: err}
	}
	return world.Block{ID: n[0], Data: n[1]}, nil
}

// SetBlock implements world.Bridge.
func (c *Client) SetBlock(ctx context.Context, pos world.Pos, b world.Block) error {
	return c.send(ctx, "world.setBlock", pos.X, pos.Y, pos.Z, b.ID, b.Data)
}

// EntityName implements world.Bridge.
func (c *Client) EntityName(ctx context.Context, entityID int) (string, error) {
	return c.query(ctx, "entity.getName", entityID)
}

// send writes one command line.
func (c *Client) send(ctx context.Context, cmd string, args ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(ctx, cmd, args)
}

// query writes one command line and reads the one-line response.
func (c *Client) query(ctx context.Context, cmd string, args ...any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.write(ctx, cmd, args); err != nil {
		return "", err
	}
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("mcpi: read %s: %w", cmd, err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "Fail" {
		return "", ErrFail
	}
	return line, nil
}

func (c *Client) write(ctx context.Context, cmd string, args []any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Now().Add(c.config.IOTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("mcpi: set deadline: %w", err)
	}

	line := cmd + "(" + joinArgs(args) + ")\n"
	if _, err := c.conn.Write([]byte(line)); err != nil {
		return fmt.Errorf("mcpi: write %s: %w", cmd, err)
	}
	return nil
}

func joinArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, ",")
}

func splitEvents(resp string) []string {
	if resp == "" {
		return nil
	}
	return strings.Split(resp, "|")
}

func parseInts(s string, want int) ([]int, error) {
	fields := strings.Split(s, ",")
	if len(fields) < want {
		return nil, fmt.Errorf("expected %d fields, got %d", want, len(fields))
	}
	out := make([]int, want)
	for i := 0; i < want; i++ {
		// Some servers report positions as floats.
		f, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return nil, err
		}
		out[i] = int(f)
	}
	return out, nil
}

var _ world.Bridge = (*Client)(nil)
