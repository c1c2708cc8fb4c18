package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"
)

const DefaultKeyBits = 2048

// GenerateKey returns a new key and its PKCS#1 PEM encoding.
func GenerateKey(bits int) (*rsa.PrivateKey, string, error) {
	privKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, "", fmt.Errorf("generate key: %w", err)
	}
	privatePemData := pem.EncodeToMemory(
		&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(privKey),
		},
	)
	return privKey, string(privatePemData), nil
}

// ParsePrivateKey accepts PKCS#1 or PKCS#8 PEM. Keys pasted into
// environment variables often arrive quoted with literal \n sequences, so
// both are undone first.
func ParsePrivateKey(raw string) (*rsa.PrivateKey, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), `"`)
	raw = strings.TrimSuffix(raw, `"`)
	raw = strings.ReplaceAll(raw, `\n`, "\n")

	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("private key: no PEM block found")
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("private key: %w", err)
		}
		return key, nil
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("private key: %w", err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key: %T is not an RSA key", key)
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("private key: unsupported PEM type %q", block.Type)
	}
}
