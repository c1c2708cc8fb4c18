// Package signature signs outbound deliveries with the draft-cavage HTTP
// signature scheme used across the fediverse.
package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cvhariharan/go-pub/models"
)

const (
	Algorithm = "rsa-sha256"

	// CoveredHeaders is the signed header list. Its order must match the
	// lines of the signing string.
	CoveredHeaders = "(request-target) host date digest"
)

// Headers is the signed header set for a single delivery.
type Headers struct {
	Host      string
	Date      string
	Digest    string
	Signature string
}

// Map returns h keyed by canonical header name.
func (h Headers) Map() map[string]string {
	return map[string]string{
		"Host":      h.Host,
		"Date":      h.Date,
		"Digest":    h.Digest,
		"Signature": h.Signature,
	}
}

// Digest is the Digest header value for body.
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
}

// SigningString joins the covered header lines without a trailing newline.
func SigningString(path, host, date, digest string) string {
	return strings.Join([]string{
		"(request-target): post " + path,
		"host: " + host,
		"date: " + date,
		"digest: " + digest,
	}, "\n")
}

// Sign computes the headers for POSTing body to inbox as local. body must
// be the exact bytes that will be sent.
func Sign(local models.Local, body []byte, inbox string, now time.Time) (Headers, error) {
	if local.Identity == nil || local.PrivateKey == nil {
		return Headers{}, errors.New("signature: no private key")
	}
	u, err := url.Parse(inbox)
	if err != nil {
		return Headers{}, fmt.Errorf("signature: parse inbox: %w", err)
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	h := Headers{
		Host:   u.Host,
		Date:   now.UTC().Format(http.TimeFormat),
		Digest: Digest(body),
	}
	sum := sha256.Sum256([]byte(SigningString(path, h.Host, h.Date, h.Digest)))
	sig, err := rsa.SignPKCS1v15(rand.Reader, local.PrivateKey, crypto.SHA256, sum[:])
	if err != nil {
		return Headers{}, fmt.Errorf("signature: sign: %w", err)
	}

	h.Signature = fmt.Sprintf(`keyId="%s",algorithm="%s",headers="%s",signature="%s"`,
		local.ID(), Algorithm, CoveredHeaders, base64.StdEncoding.EncodeToString(sig))
	return h, nil
}
