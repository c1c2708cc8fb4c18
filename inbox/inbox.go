// Package inbox decides how the node reacts to activities POSTed to the
// local actor's inbox.
package inbox

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cvhariharan/go-pub/activity"
	"github.com/cvhariharan/go-pub/apperr"
	"github.com/cvhariharan/go-pub/models"
)

type Fetcher interface {
	Fetch(ctx context.Context, iri string) (models.RemoteActor, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, local models.Local, d activity.Delivery) error
}

type Handler struct {
	fetch   Fetcher
	deliver Deliverer
	log     zerolog.Logger
	now     func() time.Time

	acceptUndoFollow bool
}

type Options struct {
	Fetcher   Fetcher
	Deliverer Deliverer
	Logger    zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// AcceptUndoFollow answers Undo(Follow) with an Accept of the inner
	// Follow instead of a bare 200.
	AcceptUndoFollow bool
}

func New(opts Options) *Handler {
	h := &Handler{
		fetch:            opts.Fetcher,
		deliver:          opts.Deliverer,
		log:              opts.Logger,
		now:              opts.Now,
		acceptUndoFollow: opts.AcceptUndoFollow,
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Receive checks the request, resolves the sending actor and runs the
// dispatch table. A nil error means 200.
func (h *Handler) Receive(ctx context.Context, local models.Local, contentType string, body []byte) error {
	if !strings.Contains(contentType, models.MediaType) {
		return apperr.New(apperr.Validation, "content type %q", contentType)
	}
	act, err := Decode(body)
	if err != nil {
		return apperr.Wrap(apperr.Validation, err, "decode activity")
	}
	if !IsHTTPS(act.Actor) {
		return apperr.New(apperr.Validation, "actor %q is not an https IRI", act.Actor)
	}
	h.log.Info().Str("id", act.ID).Str("type", act.Type).Str("actor", act.Actor).Msg("inbox")

	sender, err := h.fetch.Fetch(ctx, act.Actor)
	if err != nil {
		return err
	}
	return h.Dispatch(ctx, local, act, sender)
}

// Dispatch runs the decision table for act, whose actor resolved to sender.
func (h *Handler) Dispatch(ctx context.Context, local models.Local, act Activity, sender models.RemoteActor) error {
	switch act.Kind {
	case KindFollow:
		return h.deliver.Deliver(ctx, local, activity.AcceptFollow(local, h.now(), sender, act.Raw))
	case KindLike, KindAnnounce:
		return nil
	case KindUndo:
		return h.undo(ctx, local, act, sender)
	case KindAccept, KindReject:
		return nil
	case KindCreate, KindUpdate, KindDelete:
		return nil
	default:
		return apperr.New(apperr.UnhandledActivity, "type %q", act.Type)
	}
}

func (h *Handler) undo(ctx context.Context, local models.Local, act Activity, sender models.RemoteActor) error {
	if act.Object == nil {
		return apperr.New(apperr.UnhandledActivity, "Undo without embedded object")
	}
	switch act.Object.Kind {
	case KindFollow:
		if !h.acceptUndoFollow {
			return nil
		}
		// Answering an unfollow with an Accept is kept for compatibility
		// with what peers already receive; see Options.AcceptUndoFollow.
		h.log.Warn().Str("actor", act.Actor).Msg("answering Undo(Follow) with Accept")
		return h.deliver.Deliver(ctx, local, activity.AcceptFollow(local, h.now(), sender, act.Object.Raw))
	case KindLike, KindAnnounce:
		return nil
	default:
		return apperr.New(apperr.UnhandledActivity, "Undo of %q", act.Object.Type)
	}
}

// IsHTTPS reports whether iri parses as an absolute https IRI.
func IsHTTPS(iri string) bool {
	u, err := url.Parse(iri)
	return err == nil && u.Scheme == "https" && u.Host != ""
}
