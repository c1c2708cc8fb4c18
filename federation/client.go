// Package federation talks to remote nodes: it dereferences actor and
// object IRIs and delivers signed activities to remote inboxes.
package federation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/cvhariharan/go-pub/activity"
	"github.com/cvhariharan/go-pub/apperr"
	"github.com/cvhariharan/go-pub/models"
	"github.com/cvhariharan/go-pub/signature"
)

const Version = "1.0.0"

// Client is safe for concurrent use. It holds no state between calls.
type Client struct {
	r   *resty.Client
	log zerolog.Logger
	now func() time.Time
}

type Option func(*Client)

// WithHTTPClient swaps the transport, e.g. for an httptest TLS server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.r = resty.NewWithClient(hc) }
}

// WithClock fixes the time used for the Date header.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		r:   resty.New(),
		log: log,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// document is the wire shape of a fetched actor or object.
type document struct {
	ID                string          `json:"id"`
	Type              string          `json:"type"`
	Inbox             string          `json:"inbox"`
	AttributedTo      json.RawMessage `json:"attributedTo"`
	PreferredUsername string          `json:"preferredUsername"`
}

// Fetch dereferences iri with a single GET. Transport errors, non-2xx
// responses and undecodable bodies all come back as apperr.Fetch.
func (c *Client) Fetch(ctx context.Context, iri string) (models.RemoteActor, error) {
	if iri == "" {
		return models.RemoteActor{}, apperr.New(apperr.Fetch, "empty IRI")
	}
	c.log.Debug().Str("iri", iri).Msg("fetching remote document")

	resp, err := c.r.R().
		SetContext(ctx).
		SetHeader("Accept", models.MediaType).
		Get(iri)
	if err != nil {
		return models.RemoteActor{}, apperr.Wrap(apperr.Fetch, err, "GET "+iri)
	}
	if resp.IsError() {
		return models.RemoteActor{}, apperr.New(apperr.Fetch, "GET %s: %s", iri, resp.Status())
	}

	var doc document
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return models.RemoteActor{}, apperr.Wrap(apperr.Fetch, err, "decode "+iri)
	}
	actor := models.RemoteActor{
		ID:                doc.ID,
		Type:              doc.Type,
		Inbox:             doc.Inbox,
		AttributedTo:      firstIRI(doc.AttributedTo),
		PreferredUsername: doc.PreferredUsername,
	}
	if actor.ID == "" {
		actor.ID = iri
	}
	return actor, nil
}

// firstIRI reads attributedTo, which peers send as a string, an object
// with an id, or an array of either.
func firstIRI(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.ID != "" {
		return obj.ID
	}
	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil {
		for _, item := range list {
			if id := firstIRI(item); id != "" {
				return id
			}
		}
	}
	return ""
}

// Deliver signs and POSTs d once. There is no retry and no queue; any
// failure is returned as apperr.Delivery.
func (c *Client) Deliver(ctx context.Context, local models.Local, d activity.Delivery) error {
	if d.Inbox == "" {
		return apperr.New(apperr.Delivery, "%s: recipient has no inbox", d.Activity.Type)
	}
	body, err := activity.Marshal(d.Activity)
	if err != nil {
		return apperr.Wrap(apperr.Delivery, err, "encode activity")
	}
	headers, err := signature.Sign(local, body, d.Inbox, c.now())
	if err != nil {
		return apperr.Wrap(apperr.Delivery, err, "")
	}

	resp, err := c.r.R().
		SetContext(ctx).
		SetHeaders(headers.Map()).
		SetHeader("Accept", models.MediaType).
		SetHeader("Content-Type", models.MediaType).
		SetHeader("User-Agent", fmt.Sprintf("go-pub/%s (+https://%s/)", Version, local.Host)).
		SetBody(body).
		Post(d.Inbox)
	if err != nil {
		return apperr.Wrap(apperr.Delivery, err, "POST "+d.Inbox)
	}

	c.log.Info().
		Str("type", d.Activity.Type).
		Str("id", d.Activity.ID).
		Str("inbox", d.Inbox).
		Int("status", resp.StatusCode()).
		Msg("delivered activity")
	if resp.IsError() {
		return apperr.Wrap(apperr.Delivery, errors.New(resp.Status()), "POST "+d.Inbox)
	}
	return nil
}
