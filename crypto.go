package authkit

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
)

// ResponseEncrypter encrypts individual response fields with an RSA
// public key as a defense-in-depth measure against passive response
// inspection. It is not the primary confidentiality control; transport
// security is. The key is loaded once at startup and immutable after.
type ResponseEncrypter struct {
	key *rsa.PublicKey
}

// LoadPublicKey reads a PEM-encoded RSA public key from path.
func LoadPublicKey(path string) (*ResponseEncrypter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key %s: %w", path, err)
	}
	return ParsePublicKey(data)
}

// ParsePublicKey accepts PKIX ("PUBLIC KEY") and PKCS#1 ("RSA PUBLIC
// KEY") PEM blocks.
func ParsePublicKey(pemBytes []byte) (*ResponseEncrypter, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in public key material")
	}
	switch block.Type {
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		key, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("public key is not RSA")
		}
		return &ResponseEncrypter{key: key}, nil
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		return &ResponseEncrypter{key: key}, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block %q", block.Type)
	}
}

// Encrypt returns the RSA-OAEP ciphertext of plaintext, base64 encoded
// for embedding in a JSON body.
func (e *ResponseEncrypter) Encrypt(plaintext string) (string, error) {
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, e.key, []byte(plaintext), nil)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
