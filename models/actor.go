package models

// Actor is the profile document served for the local identity.
type Actor struct {
	Context           []string  `json:"@context"`
	ID                string    `json:"id"`
	Type              string    `json:"type"`
	Inbox             string    `json:"inbox"`
	Outbox            string    `json:"outbox"`
	Following         string    `json:"following"`
	Followers         string    `json:"followers"`
	PreferredUsername string    `json:"preferredUsername"`
	Name              string    `json:"name"`
	Summary           string    `json:"summary"`
	URL               string    `json:"url"`
	PubKey            PublicKey `json:"publicKey"`
	Icon              Image     `json:"icon"`
	Image             Image     `json:"image"`
}

type PublicKey struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Owner     string `json:"owner"`
	PubKeyPem string `json:"publicKeyPem"`
}

type Image struct {
	Type      string `json:"type"`
	MediaType string `json:"mediaType"`
	URL       string `json:"url"`
}

// OrderedCollection is used for the outbox, following and followers
// endpoints, which are always empty.
type OrderedCollection struct {
	Context    string `json:"@context"`
	ID         string `json:"id"`
	Type       string `json:"type"`
	TotalItems int    `json:"totalItems"`
}

type WebFingerResp struct {
	Subject string   `json:"subject"`
	Aliases []string `json:"aliases"`
	Links   []Link   `json:"links"`
}

type Link struct {
	Rel  string `json:"rel"`
	Type string `json:"type"`
	Href string `json:"href"`
}

// RemoteActor is the subset of a dereferenced remote document the node
// needs. It is fetched fresh on every use and never cached. Objects such
// as Notes decode into it as well; they carry AttributedTo but no Inbox.
type RemoteActor struct {
	ID                string
	Type              string
	Inbox             string
	AttributedTo      string
	PreferredUsername string
}
