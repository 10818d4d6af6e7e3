package auth

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	signingKeyInfo = "meeting-summarizer session signing"
	stateKeyInfo   = "meeting-summarizer oauth state"
)

type keyring struct {
	signing []byte
	state   []byte
}

// deriveKeys expands the configured secret into independent 256-bit keys.
func deriveKeys(secret string) (keyring, error) {
	signing, err := expand(secret, signingKeyInfo)
	if err != nil {
		return keyring{}, err
	}
	state, err := expand(secret, stateKeyInfo)
	if err != nil {
		return keyring{}, err
	}
	return keyring{signing: signing, state: state}, nil
}

func expand(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	reader := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}
