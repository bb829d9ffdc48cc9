package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"notely/internal/notes"
)

// Client issues list, create, update and delete against a Table.
// Every failure it returns is a *notes.Error.
type Client struct {
	table Table
	now   func() time.Time
	log   zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithLogger sets the logger used for request logging
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient wraps table
func NewClient(table Table, opts ...Option) *Client {
	c := &Client{
		table: table,
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// stamp returns the current time at the precision every backend can store
func (c *Client) stamp() time.Time {
	return c.now().UTC().Truncate(time.Microsecond)
}

// List returns every note, most recently updated first
func (c *Client) List(ctx context.Context) ([]notes.Note, error) {
	start := time.Now()
	list, err := c.table.Select(ctx)
	if err != nil {
		c.log.Error().Err(err).Str("op", "list").Msg("store request failed")
		return nil, notes.Backend("list", err)
	}
	c.log.Debug().Str("op", "list").Int("count", len(list)).Dur("duration", time.Since(start)).Msg("store request")
	if list == nil {
		list = []notes.Note{}
	}
	return list, nil
}

// Create inserts a note. Missing fields default to empty strings and both
// timestamps are set to now.
func (c *Client) Create(ctx context.Context, fields notes.Fields) (notes.Note, error) {
	now := c.stamp()
	row := notes.Note{CreatedAt: now, UpdatedAt: now}
	if fields.Title != nil {
		row.Title = *fields.Title
	}
	if fields.Content != nil {
		row.Content = *fields.Content
	}

	start := time.Now()
	created, err := c.table.Insert(ctx, row)
	if err != nil {
		c.log.Error().Err(err).Str("op", "create").Msg("store request failed")
		return notes.Note{}, notes.Backend("create", err)
	}
	c.log.Debug().Str("op", "create").Str("note_id", created.ID).Dur("duration", time.Since(start)).Msg("store request")
	return created, nil
}

// Update overwrites title and content of an existing note and stamps
// updated_at. A note without an id is rejected before reaching the backend.
func (c *Client) Update(ctx context.Context, n notes.Note) (notes.Note, error) {
	if n.ID == "" {
		return notes.Note{}, notes.Validation("update", notes.ErrIDRequired)
	}

	start := time.Now()
	saved, err := c.table.UpdateByID(ctx, n.ID, n.Title, n.Content, c.stamp())
	if err != nil {
		c.log.Error().Err(err).Str("op", "update").Str("note_id", n.ID).Msg("store request failed")
		return notes.Note{}, notes.Backend("update", err)
	}
	c.log.Debug().Str("op", "update").Str("note_id", n.ID).Dur("duration", time.Since(start)).Msg("store request")
	return saved, nil
}

// Delete removes the note with the given id
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return notes.Validation("delete", notes.ErrIDRequired)
	}

	start := time.Now()
	if err := c.table.DeleteByID(ctx, id); err != nil {
		c.log.Error().Err(err).Str("op", "delete").Str("note_id", id).Msg("store request failed")
		return notes.Backend("delete", err)
	}
	c.log.Debug().Str("op", "delete").Str("note_id", id).Dur("duration", time.Since(start)).Msg("store request")
	return nil
}

// Initialize creates the backend schema when the table supports it
func (c *Client) Initialize(ctx context.Context) error {
	init, ok := c.table.(Initializer)
	if !ok {
		return nil
	}
	if err := init.Initialize(ctx); err != nil {
		return notes.Backend("initialize", err)
	}
	return nil
}
