package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// The vault file is sealed with AES-256-GCM under a key stretched from
// the master password via Argon2id. A sealed blob is
// base64(nonce || ciphertext), with a fresh nonce per write; the salt
// for key derivation lives next to the vault file.

const (
	vaultKeyLen  = 32 // AES-256
	vaultSaltLen = 16

	// Argon2id cost parameters.
	argonPasses   = 3
	argonMemoryKB = 64 * 1024
	argonLanes    = 4
)

// DeriveVaultKey stretches a master password into a vault key.
// Same password and salt always yield the same key.
func DeriveVaultKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonPasses, argonMemoryKB, argonLanes, vaultKeyLen)
}

// NewSalt returns a fresh random salt for key derivation.
func NewSalt() ([]byte, error) {
	salt := make([]byte, vaultSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

func vaultAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// sealVault encrypts vault contents and encodes them for storage.
func sealVault(plaintext, key []byte) (string, error) {
	aead, err := vaultAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// openVault decodes and decrypts a sealed vault blob. It fails on
// truncation, tampering, or a key derived from the wrong password.
func openVault(blob string, key []byte) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("vault is not base64: %w", err)
	}

	aead, err := vaultAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("vault blob truncated")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	return plaintext, nil
}
