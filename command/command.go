// Package command runs the operator-triggered actions behind the secret
// command endpoint: follow, like, announce, post and delete, plus undo.
package command

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cvhariharan/go-pub/activity"
	"github.com/cvhariharan/go-pub/apperr"
	"github.com/cvhariharan/go-pub/inbox"
	"github.com/cvhariharan/go-pub/models"
)

type Type string

const (
	TypeIntrospect        Type = "type"
	TypeFollow            Type = "follow"
	TypeUndoFollow        Type = "undo_follow"
	TypeLike              Type = "like"
	TypeUndoLike          Type = "undo_like"
	TypeAnnounce          Type = "announce"
	TypeUndoAnnounce      Type = "undo_announce"
	TypeCreateNote        Type = "create_note"
	TypeCreateNoteMention Type = "create_note_mention"
	TypeCreateNoteHashtag Type = "create_note_hashtag"
	TypeDeleteNote        Type = "delete_note"
)

// requirement describes what a command needs beyond the id parameter.
type requirement struct {
	needsURL    bool
	needsTag    bool
	needsAuthor bool
}

var requirements = map[Type]requirement{
	TypeIntrospect:        {},
	TypeFollow:            {},
	TypeUndoFollow:        {},
	TypeLike:              {needsAuthor: true},
	TypeUndoLike:          {needsAuthor: true},
	TypeAnnounce:          {needsAuthor: true},
	TypeUndoAnnounce:      {needsAuthor: true},
	TypeCreateNote:        {needsURL: true},
	TypeCreateNoteMention: {needsURL: true, needsAuthor: true},
	TypeCreateNoteHashtag: {needsURL: true, needsTag: true},
	TypeDeleteNote:        {needsURL: true},
}

// Request carries the query parameters of one command.
type Request struct {
	Type Type
	// ID is the target actor, or the object being reacted to.
	ID  string
	URL string
	Tag string
}

// Result is what a successful command reports back. Only the introspection
// command fills it in.
type Result struct {
	ObjectType string
}

type Runner struct {
	secret  string
	fetch   inbox.Fetcher
	deliver inbox.Deliverer
	log     zerolog.Logger
	now     func() time.Time
}

type Options struct {
	// Secret guards the endpoint. Empty disables it entirely.
	Secret    string
	Fetcher   inbox.Fetcher
	Deliverer inbox.Deliverer
	Logger    zerolog.Logger
	Now       func() time.Time
}

func New(opts Options) *Runner {
	r := &Runner{
		secret:  opts.Secret,
		fetch:   opts.Fetcher,
		deliver: opts.Deliverer,
		log:     opts.Logger,
		now:     opts.Now,
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Authorize fails with apperr.NotFound unless secret matches. The "-"
// placeholder and an unset secret never match.
func (r *Runner) Authorize(secret string) error {
	if r.secret == "" || secret == "" || secret == "-" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(r.secret)) != 1 {
		return apperr.New(apperr.NotFound, "command endpoint")
	}
	return nil
}

// Validate checks req without touching the network.
func Validate(req Request) error {
	r, ok := requirements[req.Type]
	if !ok {
		return apperr.New(apperr.Validation, "unknown command type %q", req.Type)
	}
	if req.ID == "" {
		return apperr.New(apperr.Validation, "missing id")
	}
	if !inbox.IsHTTPS(req.ID) {
		return apperr.New(apperr.Validation, "id %q is not an https IRI", req.ID)
	}
	if r.needsURL && !inbox.IsHTTPS(req.URL) {
		return apperr.New(apperr.Validation, "url %q is not an https IRI", req.URL)
	}
	if r.needsTag && strings.TrimPrefix(req.Tag, "#") == "" {
		return apperr.New(apperr.Validation, "missing tag")
	}
	return nil
}

// Run validates req, resolves the target (and the author of the target when
// the command reacts to content) and delivers the built activity.
func (r *Runner) Run(ctx context.Context, local models.Local, req Request) (Result, error) {
	if err := Validate(req); err != nil {
		return Result{}, err
	}
	target, err := r.fetch.Fetch(ctx, req.ID)
	if err != nil {
		return Result{}, err
	}
	var author models.RemoteActor
	if requirements[req.Type].needsAuthor {
		author, err = r.fetch.Fetch(ctx, target.AttributedTo)
		if err != nil {
			return Result{}, err
		}
	}

	now := r.now()
	var d activity.Delivery
	switch req.Type {
	case TypeIntrospect:
		r.log.Info().Str("id", target.ID).Str("type", target.Type).Msg("introspect")
		return Result{ObjectType: target.Type}, nil
	case TypeFollow:
		d = activity.Follow(local, now, target)
	case TypeUndoFollow:
		d = activity.UndoFollow(local, now, target)
	case TypeLike:
		d = activity.Like(local, now, target, author)
	case TypeUndoLike:
		d = activity.UndoLike(local, now, target, author)
	case TypeAnnounce:
		d = activity.Announce(local, now, target, author)
	case TypeUndoAnnounce:
		d = activity.UndoAnnounce(local, now, target, author)
	case TypeCreateNote:
		d = activity.CreateNote(local, now, target, req.URL)
	case TypeCreateNoteMention:
		d = activity.CreateNoteMention(local, now, target, author, req.URL)
	case TypeCreateNoteHashtag:
		d = activity.CreateNoteHashtag(local, now, target, req.URL, strings.TrimPrefix(req.Tag, "#"))
	case TypeDeleteNote:
		d = activity.DeleteNote(local, now, target, req.URL)
	}

	r.log.Info().Str("command", string(req.Type)).Str("id", req.ID).Msg("running command")
	return Result{}, r.deliver.Deliver(ctx, local, d)
}
