package models

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// Identity is the single local actor served by the node. It is built once
// at startup and never modified.
type Identity struct {
	Username     string
	DisplayName  string
	PrivateKey   *rsa.PrivateKey
	PublicKeyPem string
}

// NewIdentity derives the public key PEM from key.
func NewIdentity(username, displayName string, key *rsa.PrivateKey) (*Identity, error) {
	if username == "" {
		return nil, errors.New("identity: empty username")
	}
	if key == nil {
		return nil, errors.New("identity: nil private key")
	}
	pubPem, err := EncodePublicKey(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	return &Identity{
		Username:     username,
		DisplayName:  displayName,
		PrivateKey:   key,
		PublicKeyPem: pubPem,
	}, nil
}

// EncodePublicKey returns the SPKI PEM encoding of pub.
func EncodePublicKey(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// At binds the identity to the host the current request was addressed to.
func (id *Identity) At(host string) Local {
	return Local{Identity: id, Host: host}
}

// Local is the identity as seen through one request's host. All local IRIs
// are derived from it.
type Local struct {
	*Identity
	Host string
}

func (l Local) base() string {
	return "https://" + l.Host
}

// ID is the profile IRI. It doubles as the signing key id.
func (l Local) ID() string {
	return l.base() + "/u/" + l.Username
}

func (l Local) Inbox() string     { return l.ID() + "/inbox" }
func (l Local) Outbox() string    { return l.ID() + "/outbox" }
func (l Local) Following() string { return l.ID() + "/following" }
func (l Local) Followers() string { return l.ID() + "/followers" }

// StatusIRI names a status by its epoch-second counter. Two statuses made in
// the same second share an IRI.
func (l Local) StatusIRI(n int64) string {
	return fmt.Sprintf("%s/s/%d", l.ID(), n)
}

// ActivityIRI is the id of the activity wrapping status n.
func (l Local) ActivityIRI(n int64) string {
	return l.StatusIRI(n) + "/activity"
}

func (l Local) Acct() string {
	return "acct:" + l.Username + "@" + l.Host
}

func (l Local) PublicURL(name string) string {
	return l.base() + "/public/" + name
}
