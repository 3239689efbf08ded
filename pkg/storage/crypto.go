package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PageCipher provides optional, transparent at-rest encryption of a
// page's data region. Unlike the teacher's random-IV-per-call AES-256
// CTR (which prepends a 16-byte IV and so grows the ciphertext), the
// IV here is derived deterministically from the page number, so
// encrypting a page never changes its length: every on-disk page stays
// exactly PageSize bytes, which pagePosition's offset arithmetic
// depends on.
//
// This means two pages with identical plaintext and the same page
// number encrypt to identical ciphertext, and a page's ciphertext
// changes if it is ever reassigned a different page number (which only
// happens across a delete/reallocate, never while held). Data at rest
// is not authenticated; PageCipher is confidentiality-only, matching
// the teacher's CTR mode.
type PageCipher struct {
	block cipher.Block
}

// NewPageCipherFromKey builds a PageCipher from an explicit 32-byte
// AES-256 key.
func NewPageCipherFromKey(key []byte) (*PageCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("storage: page cipher key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("storage: build page cipher: %w", err)
	}
	return &PageCipher{block: block}, nil
}

// NewPageCipherFromPassword derives a 32-byte AES-256 key from a
// passphrase and salt via PBKDF2, following the teacher's
// password-based key derivation.
func NewPageCipherFromPassword(password string, salt []byte) (*PageCipher, error) {
	if password == "" {
		return nil, fmt.Errorf("storage: page cipher password must not be empty")
	}
	key := pbkdf2.Key([]byte(password), salt, 100000, 32, sha256.New)
	return NewPageCipherFromKey(key)
}

// pageIV derives page n's initialization vector from the page number
// alone. The number fills the top four bytes and the low twelve bytes
// are left for CTR's block counter, so the keystream for page n never
// repeats across page numbers under the same key.
func pageIV(n PageID) []byte {
	iv := make([]byte, aes.BlockSize)
	binary.BigEndian.PutUint32(iv[:4], uint32(n))
	return iv
}

func (c *PageCipher) stream(n PageID) cipher.Stream {
	return cipher.NewCTR(c.block, pageIV(n))
}

// encrypt XORs data in place with page n's keystream.
func (c *PageCipher) encrypt(n PageID, data []byte) {
	c.stream(n).XORKeyStream(data, data)
}

// decrypt XORs data in place with page n's keystream. CTR mode makes
// this the same operation as encrypt.
func (c *PageCipher) decrypt(n PageID, data []byte) {
	c.stream(n).XORKeyStream(data, data)
}
