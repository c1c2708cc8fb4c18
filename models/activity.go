package models

const (
	ActivityStreams = "https://www.w3.org/ns/activitystreams"
	SecurityV1      = "https://w3id.org/security/v1"
	Public          = ActivityStreams + "#Public"

	// MediaType is the protocol media type for requests and documents.
	MediaType = "application/activity+json"
)

// Activity types the node emits or recognises.
const (
	TypeFollow   = "Follow"
	TypeAccept   = "Accept"
	TypeReject   = "Reject"
	TypeUndo     = "Undo"
	TypeLike     = "Like"
	TypeAnnounce = "Announce"
	TypeCreate   = "Create"
	TypeUpdate   = "Update"
	TypeDelete   = "Delete"

	TypeNote    = "Note"
	TypeMention = "Mention"
	TypeHashtag = "Hashtag"
	TypePerson  = "Person"
)

// Activity is an outbound activity envelope. Object holds an IRI string,
// a Reference, a Note, or the raw JSON of a received activity.
type Activity struct {
	Context   interface{} `json:"@context"`
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Actor     string      `json:"actor"`
	Published string      `json:"published,omitempty"`
	To        []string    `json:"to,omitempty"`
	Cc        []string    `json:"cc,omitempty"`
	Object    interface{} `json:"object"`
}

// Reference is a minimal embedded object: the inner activity of an Undo
// ({type, object}) or a Note tombstone for Delete ({id, type}).
type Reference struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type"`
	Object string `json:"object,omitempty"`
}

type Note struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	AttributedTo string   `json:"attributedTo"`
	InReplyTo    string   `json:"inReplyTo,omitempty"`
	Content      string   `json:"content"`
	URL          string   `json:"url"`
	Published    string   `json:"published"`
	To           []string `json:"to"`
	Cc           []string `json:"cc"`
	Tag          []Tag    `json:"tag,omitempty"`
}

// Tag is a Mention or Hashtag attached to a Note.
type Tag struct {
	Type string `json:"type"`
	Href string `json:"href,omitempty"`
	Name string `json:"name"`
}
