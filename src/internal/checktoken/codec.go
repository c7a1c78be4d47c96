package checktoken

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/pbkdf2"
)

const (
	keySalt       = "pos-payment-check-token"
	keyIterations = 4096
	keyLength     = 32
)

// Fields are the attributes a check token carries. The token is opaque to
// callers; only holders of the configured secret can mint or read one.
type Fields struct {
	Amount           decimal.Decimal
	NbDaysOfValidity int
	CreatedAt        time.Time
}

type Codec struct {
	aead cipher.AEAD
}

func NewCodec(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("check token secret is required")
	}

	key := pbkdf2.Key([]byte(secret), []byte(keySalt), keyIterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("build token cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("build token aead: %w", err)
	}

	return &Codec{aead: aead}, nil
}

func (c *Codec) Encode(fields Fields) (string, error) {
	if fields.Amount.LessThanOrEqual(decimal.Zero) {
		return "", fmt.Errorf("token amount must be greater than zero")
	}
	if fields.NbDaysOfValidity <= 0 {
		return "", fmt.Errorf("token validity days must be greater than zero")
	}

	payload := fmt.Sprintf("%s:%d:%d", fields.Amount.String(), fields.NbDaysOfValidity, fields.CreatedAt.UTC().Unix())

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate token nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(payload), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *Codec) Decode(token string) (Fields, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return Fields{}, fmt.Errorf("decode token: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) <= nonceSize {
		return Fields{}, fmt.Errorf("decode token: payload too short")
	}

	plain, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return Fields{}, fmt.Errorf("open token: %w", err)
	}

	parts := strings.Split(string(plain), ":")
	if len(parts) != 3 {
		return Fields{}, fmt.Errorf("decode token: unexpected payload shape")
	}

	amount, err := decimal.NewFromString(parts[0])
	if err != nil {
		return Fields{}, fmt.Errorf("decode token amount: %w", err)
	}

	validityDays, err := strconv.Atoi(parts[1])
	if err != nil {
		return Fields{}, fmt.Errorf("decode token validity days: %w", err)
	}

	createdUnix, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Fields{}, fmt.Errorf("decode token created at: %w", err)
	}

	return Fields{
		Amount:           amount,
		NbDaysOfValidity: validityDays,
		CreatedAt:        time.Unix(createdUnix, 0).UTC(),
	}, nil
}
