// Package postgrest talks to a Supabase/PostgREST endpoint through
// postgrest-go.
package postgrest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	pgrst "github.com/supabase-community/postgrest-go"

	"notely/internal/notes"
	"notely/internal/store"
)

// APIError is an error reported by the PostgREST server
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("postgrest (%s): %s", e.Code, e.Message)
	}
	return "postgrest: " + e.Message
}

// Table is a notes table behind a PostgREST endpoint
type Table struct {
	client *pgrst.Client
	table  string
}

// Option configures a Table
type Option func(*Table)

// WithTransport sends requests through rt instead of the default transport
func WithTransport(rt http.RoundTripper) Option {
	return func(t *Table) {
		t.client.Transport.Parent = rt
	}
}

// New returns a table for baseURL (the project URL, e.g.
// https://xyz.supabase.co) authenticated with key.
func New(baseURL, key, table string, opts ...Option) (*Table, error) {
	if baseURL == "" || key == "" {
		return nil, errors.New("postgrest url and key are required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/rest/v1")
	if err != nil {
		return nil, fmt.Errorf("invalid postgrest url: %w", err)
	}

	c := pgrst.NewClient(u.String(), "", nil).SetApiKey(key).SetAuthToken(key)
	if c.ClientError != nil {
		return nil, fmt.Errorf("postgrest client: %w", c.ClientError)
	}
	c.Transport.Parent = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: 30 * time.Second,
	}

	t := &Table{client: c, table: table}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

type insertRow struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type updateRow struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Table) Select(ctx context.Context) ([]notes.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var list []notes.Note
	_, err := t.client.From(t.table).
		Select("*", "", false).
		Order("updated_at", &pgrst.OrderOpts{Ascending: false}).
		ExecuteTo(&list)
	if err != nil {
		return nil, apiError(err)
	}
	return list, nil
}

func (t *Table) Insert(ctx context.Context, row notes.Note) (notes.Note, error) {
	if err := ctx.Err(); err != nil {
		return notes.Note{}, err
	}
	body := []insertRow{{
		Title:     row.Title,
		Content:   row.Content,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}}

	var out []notes.Note
	_, err := t.client.From(t.table).
		Insert(body, false, "", "representation", "").
		ExecuteTo(&out)
	if err != nil {
		return notes.Note{}, apiError(err)
	}
	if len(out) == 0 {
		return notes.Note{}, fmt.Errorf("insert returned no row: %w", store.ErrNoRows)
	}
	return out[0], nil
}

func (t *Table) UpdateByID(ctx context.Context, id, title, content string, updatedAt time.Time) (notes.Note, error) {
	if err := ctx.Err(); err != nil {
		return notes.Note{}, err
	}
	var out []notes.Note
	_, err := t.client.From(t.table).
		Update(updateRow{Title: title, Content: content, UpdatedAt: updatedAt}, "representation", "").
		Eq("id", id).
		ExecuteTo(&out)
	if err != nil {
		return notes.Note{}, apiError(err)
	}
	if len(out) == 0 {
		return notes.Note{}, fmt.Errorf("update %s: %w", id, store.ErrNoRows)
	}
	return out[0], nil
}

func (t *Table) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := t.client.From(t.table).
		Delete("minimal", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return apiError(err)
	}
	return nil
}

// apiError turns postgrest-go's "(code) message" errors into an APIError.
// Transport and decoding errors are returned unchanged.
func apiError(err error) error {
	msg := err.Error()
	if !strings.HasPrefix(msg, "(") {
		return err
	}
	code, rest, ok := strings.Cut(msg[1:], ") ")
	if !ok {
		return err
	}
	return &APIError{Code: code, Message: rest}
}
