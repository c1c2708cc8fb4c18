// Package activity builds outbound activities. Builders do no I/O and
// cannot fail; IRIs handed to them are expected to be validated already.
package activity

import (
	"bytes"
	"encoding/json"
	"html"
	"net/url"
	"time"

	"github.com/cvhariharan/go-pub/models"
)

// Delivery is a built activity together with the inbox it goes to.
type Delivery struct {
	Inbox    string
	Activity models.Activity
}

// hashtagContext extends the base context with the Hashtag term.
var hashtagContext = []interface{}{
	models.ActivityStreams,
	map[string]string{"Hashtag": "as:Hashtag"},
}

func published(now time.Time) string {
	return now.UTC().Format("2006-01-02T15:04:05Z")
}

func envelope(local models.Local, now time.Time, typ string, object interface{}) models.Activity {
	return models.Activity{
		Context: models.ActivityStreams,
		ID:      local.StatusIRI(now.Unix()),
		Type:    typ,
		Actor:   local.ID(),
		Object:  object,
	}
}

func public(local models.Local) ([]string, []string) {
	return []string{models.Public}, []string{local.Followers()}
}

// AcceptFollow answers follow, embedding the received Follow verbatim.
func AcceptFollow(local models.Local, now time.Time, follower models.RemoteActor, follow json.RawMessage) Delivery {
	return Delivery{
		Inbox:    follower.Inbox,
		Activity: envelope(local, now, models.TypeAccept, follow),
	}
}

func Follow(local models.Local, now time.Time, target models.RemoteActor) Delivery {
	return Delivery{
		Inbox:    target.Inbox,
		Activity: envelope(local, now, models.TypeFollow, target.ID),
	}
}

func UndoFollow(local models.Local, now time.Time, target models.RemoteActor) Delivery {
	return undo(local, now, models.TypeFollow, target.ID, target.Inbox)
}

// Like targets object and is delivered to its author.
func Like(local models.Local, now time.Time, object, author models.RemoteActor) Delivery {
	return Delivery{
		Inbox:    author.Inbox,
		Activity: envelope(local, now, models.TypeLike, object.ID),
	}
}

func UndoLike(local models.Local, now time.Time, object, author models.RemoteActor) Delivery {
	return undo(local, now, models.TypeLike, object.ID, author.Inbox)
}

func Announce(local models.Local, now time.Time, object, author models.RemoteActor) Delivery {
	a := envelope(local, now, models.TypeAnnounce, object.ID)
	a.Published = published(now)
	a.To, a.Cc = public(local)
	return Delivery{Inbox: author.Inbox, Activity: a}
}

func UndoAnnounce(local models.Local, now time.Time, object, author models.RemoteActor) Delivery {
	return undo(local, now, models.TypeAnnounce, object.ID, author.Inbox)
}

func undo(local models.Local, now time.Time, innerType, object, inbox string) Delivery {
	return Delivery{
		Inbox: inbox,
		Activity: envelope(local, now, models.TypeUndo, models.Reference{
			Type:   innerType,
			Object: object,
		}),
	}
}

// CreateNote shares link with target.
func CreateNote(local models.Local, now time.Time, target models.RemoteActor, link string) Delivery {
	return Delivery{
		Inbox:    target.Inbox,
		Activity: create(local, now, note(local, now, link)),
	}
}

// CreateNoteMention replies to object and mentions its author, to whom the
// activity is delivered.
func CreateNoteMention(local models.Local, now time.Time, object, author models.RemoteActor, link string) Delivery {
	n := note(local, now, link)
	n.InReplyTo = object.ID
	n.Tag = []models.Tag{{
		Type: models.TypeMention,
		Href: author.ID,
		Name: "@" + author.PreferredUsername + "@" + hostname(author.Inbox),
	}}
	return Delivery{Inbox: author.Inbox, Activity: create(local, now, n)}
}

func CreateNoteHashtag(local models.Local, now time.Time, target models.RemoteActor, link, tag string) Delivery {
	n := note(local, now, link)
	n.Tag = []models.Tag{{Type: models.TypeHashtag, Name: "#" + tag}}
	a := create(local, now, n)
	a.Context = hashtagContext
	return Delivery{Inbox: target.Inbox, Activity: a}
}

// DeleteNote references the note by IRI only; no tombstone is fetched.
func DeleteNote(local models.Local, now time.Time, target models.RemoteActor, noteIRI string) Delivery {
	a := envelope(local, now, models.TypeDelete, models.Reference{
		ID:   noteIRI,
		Type: models.TypeNote,
	})
	a.ID = local.ActivityIRI(now.Unix())
	return Delivery{Inbox: target.Inbox, Activity: a}
}

func create(local models.Local, now time.Time, n models.Note) models.Activity {
	a := envelope(local, now, models.TypeCreate, n)
	a.ID = local.ActivityIRI(now.Unix())
	a.Published = n.Published
	a.To, a.Cc = public(local)
	return a
}

func note(local models.Local, now time.Time, link string) models.Note {
	id := local.StatusIRI(now.Unix())
	to, cc := public(local)
	return models.Note{
		ID:           id,
		Type:         models.TypeNote,
		AttributedTo: local.ID(),
		Content:      RenderLink(link),
		URL:          id,
		Published:    published(now),
		To:           to,
		Cc:           cc,
	}
}

// RenderLink is the templated note body: a link to the root of link's host.
func RenderLink(link string) string {
	h := html.EscapeString(hostname(link))
	return `<p><a href="https://` + h + `/">` + h + `</a></p>`
}

func hostname(iri string) string {
	u, err := url.Parse(iri)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Marshal serialises a for transmission. HTML in note content is kept
// unescaped and the result has no trailing newline; the bytes returned are
// the ones that must be digested and sent.
func Marshal(a models.Activity) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(a); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
