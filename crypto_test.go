package authkit_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"

	authkit "github.com/foresteye/authkit"
)

func testKeyPair(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("failed to marshal public key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, pemBytes
}

func decryptOAEP(t *testing.T, key *rsa.PrivateKey, encoded string) string {
	t.Helper()
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("ciphertext is not valid base64: %v", err)
	}
	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, key, ciphertext, nil)
	if err != nil {
		t.Fatalf("decryption failed: %v", err)
	}
	return string(plaintext)
}

func TestEncryptRoundtrip(t *testing.T) {
	key, pemBytes := testKeyPair(t)

	encrypter, err := authkit.ParsePublicKey(pemBytes)
	if err != nil {
		t.Fatalf("ParsePublicKey failed: %v", err)
	}

	encrypted, err := encrypter.Encrypt("user@example.com")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if encrypted == "user@example.com" {
		t.Fatal("ciphertext must not equal plaintext")
	}

	if got := decryptOAEP(t, key, encrypted); got != "user@example.com" {
		t.Errorf("roundtrip mismatch: got %q", got)
	}
}

func TestParsePublicKeyPKCS1(t *testing.T) {
	key, _ := testKeyPair(t)
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey),
	})
	if _, err := authkit.ParsePublicKey(pemBytes); err != nil {
		t.Fatalf("ParsePublicKey failed for PKCS#1 block: %v", err)
	}
}

func TestParsePublicKeyRejectsBadMaterial(t *testing.T) {
	tests := []struct {
		name string
		pem  []byte
	}{
		{"not pem", []byte("definitely not a key")},
		{"wrong block type", pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1, 2, 3}})},
		{"garbage bytes", pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: []byte{1, 2, 3}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := authkit.ParsePublicKey(tt.pem); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
