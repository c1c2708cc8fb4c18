package inbox

import (
	"bytes"
	"encoding/json"

	"github.com/cvhariharan/go-pub/models"
)

// Kind is the closed set of inbound activity types the dispatcher knows.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindFollow
	KindLike
	KindAnnounce
	KindUndo
	KindAccept
	KindReject
	KindCreate
	KindUpdate
	KindDelete
)

var kinds = map[string]Kind{
	models.TypeFollow:   KindFollow,
	models.TypeLike:     KindLike,
	models.TypeAnnounce: KindAnnounce,
	models.TypeUndo:     KindUndo,
	models.TypeAccept:   KindAccept,
	models.TypeReject:   KindReject,
	models.TypeCreate:   KindCreate,
	models.TypeUpdate:   KindUpdate,
	models.TypeDelete:   KindDelete,
}

func kindOf(typ string) Kind {
	if k, ok := kinds[typ]; ok {
		return k
	}
	return KindUnrecognized
}

// Activity is a decoded inbound activity. Raw keeps the bytes as received
// so replies can embed them unchanged.
type Activity struct {
	Kind  Kind
	Type  string
	ID    string
	Actor string
	// Object is set when the object was embedded rather than referenced.
	Object *Activity
	Raw    json.RawMessage
}

type wire struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Actor  json.RawMessage `json:"actor"`
	Object json.RawMessage `json:"object"`
}

// Decode parses an inbound activity. Unknown types decode fine and come back
// as KindUnrecognized; only malformed JSON is an error.
func Decode(raw []byte) (Activity, error) {
	var w wire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Activity{}, err
	}
	a := Activity{
		Kind:  kindOf(w.Type),
		Type:  w.Type,
		ID:    w.ID,
		Actor: iriOf(w.Actor),
		Raw:   json.RawMessage(raw),
	}
	if obj := bytes.TrimSpace(w.Object); len(obj) > 0 && obj[0] == '{' {
		inner, err := Decode(obj)
		if err != nil {
			return Activity{}, err
		}
		a.Object = &inner
	}
	return a, nil
}

// iriOf accepts an actor given as a bare IRI or as an object with an id.
func iriOf(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.ID
	}
	return ""
}
