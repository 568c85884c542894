package webhook

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Verifier handles webhook verification
type Verifier struct {
	verifyToken string
	encryptKey  string
	logger      *zap.Logger
}

// NewVerifier creates a new webhook verifier
func NewVerifier(verifyToken, encryptKey string, logger *zap.Logger) *Verifier {
	return &Verifier{
		verifyToken: verifyToken,
		encryptKey:  encryptKey,
		logger:      logger,
	}
}

// VerifyChallenge handles the initial webhook challenge verification
func (v *Verifier) VerifyChallenge(body []byte) (string, error) {
	var challenge struct {
		Challenge string `json:"challenge"`
		Token     string `json:"token"`
		Type      string `json:"type"`
	}

	if err := json.Unmarshal(body, &challenge); err != nil {
		return "", fmt.Errorf("unmarshal challenge: %w", err)
	}

	if challenge.Type != "url_verification" {
		return "", fmt.Errorf("invalid challenge type: %s", challenge.Type)
	}

	if v.verifyToken != "" && challenge.Token != v.verifyToken {
		return "", fmt.Errorf("invalid verification token")
	}

	return challenge.Challenge, nil
}

// VerifySignature verifies the webhook signature. Verification is skipped
// when no encrypt key is configured.
func (v *Verifier) VerifySignature(timestamp, nonce, signature, body string) bool {
	if v.encryptKey == "" {
		return true
	}

	content := timestamp + nonce + v.encryptKey + body
	hash := sha256.Sum256([]byte(content))
	calculated := fmt.Sprintf("%x", hash)

	return calculated == signature
}

// DecryptBody unwraps an encrypted event payload. Lark wraps the whole event
// in {"encrypt": "<base64>"} when an encrypt key is configured; a body
// without that wrapper passes through unchanged.
func (v *Verifier) DecryptBody(body []byte) ([]byte, error) {
	var wrapper struct {
		Encrypt string `json:"encrypt"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Encrypt == "" {
		return body, nil
	}

	if v.encryptKey == "" {
		return nil, fmt.Errorf("received encrypted event but no encrypt key configured")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(wrapper.Encrypt)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	key := sha256.Sum256([]byte(v.encryptKey))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	if len(ciphertext) < aes.BlockSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	iv := ciphertext[:aes.BlockSize]
	ciphertext = ciphertext[aes.BlockSize:]

	mode := cipher.NewCBCDecrypter(block, iv)
	plaintext := make([]byte, len(ciphertext))
	mode.CryptBlocks(plaintext, ciphertext)

	return removePKCS7Padding(plaintext), nil
}

func removePKCS7Padding(data []byte) []byte {
	if len(data) == 0 {
		return data
	}

	padding := int(data[len(data)-1])
	if padding > len(data) || padding > aes.BlockSize {
		return data
	}

	return data[:len(data)-padding]
}
