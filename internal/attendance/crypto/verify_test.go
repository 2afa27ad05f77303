package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKeyPair(t *testing.T) (pemPub string, priv *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	derPub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	block := &pem.Block{Type: "PUBLIC KEY", Bytes: derPub}
	return string(pem.EncodeToMemory(block)), key
}

func sign(t *testing.T, priv *rsa.PrivateKey, data string) string {
	t.Helper()
	digest := sha256.Sum256([]byte(data))
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(sig)
}

func TestVerifySignature_Valid(t *testing.T) {
	pub, priv := generateKeyPair(t)
	data := `{"deviceId":"abc","ts":1234}`
	sig := sign(t, priv, data)

	assert.True(t, VerifySignature(pub, data, sig))
}

func TestVerifySignature_TamperedData(t *testing.T) {
	pub, priv := generateKeyPair(t)
	sig := sign(t, priv, "original")

	assert.False(t, VerifySignature(pub, "tampered", sig))
}

func TestVerifySignature_WrongKey(t *testing.T) {
	_, priv := generateKeyPair(t)
	otherPub, _ := generateKeyPair(t)

	data := "payload"
	sig := sign(t, priv, data)

	assert.False(t, VerifySignature(otherPub, data, sig))
}

func TestVerifySignature_MalformedInputsNeverPanic(t *testing.T) {
	assert.False(t, VerifySignature("not a pem", "data", "not-base64!!"))
	assert.False(t, VerifySignature("", "", ""))
	assert.False(t, VerifySignature("-----BEGIN PUBLIC KEY-----\ngarbage\n-----END PUBLIC KEY-----", "data", "AAAA"))
}

func TestHashContent_Deterministic(t *testing.T) {
	h1 := HashContent("abc")
	h2 := HashContent("abc")
	h3 := HashContent("abcd")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}
