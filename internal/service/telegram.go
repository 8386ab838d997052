package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultTelegramMaxAge bounds how old auth_date may be
const DefaultTelegramMaxAge = 24 * time.Hour

var (
	ErrInvalidTelegramData = errors.New("invalid telegram data")
	ErrMissingHash         = errors.New("no hash parameter found")
	ErrHashMismatch        = errors.New("data verification failed")
	ErrAuthDataOutdated    = errors.New("authentication data is outdated")
)

// VerifyTelegramData checks a Telegram login widget payload, given as a
// query string, against the bot token and returns its fields without hash.
func VerifyTelegramData(raw, botToken string, maxAge time.Duration, now time.Time) (map[string]string, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, ErrInvalidTelegramData
	}

	data := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			// last occurrence wins
			data[k] = v[len(v)-1]
		}
	}

	providedHash, ok := data["hash"]
	if !ok || providedHash == "" {
		return nil, ErrMissingHash
	}
	delete(data, "hash")

	expected := TelegramHash(data, botToken)
	if !hmac.Equal([]byte(expected), []byte(providedHash)) {
		return nil, ErrHashMismatch
	}

	authDate, err := strconv.ParseInt(data["auth_date"], 10, 64)
	if err != nil {
		return nil, ErrAuthDataOutdated
	}
	if now.Unix()-authDate > int64(maxAge/time.Second) {
		return nil, ErrAuthDataOutdated
	}

	return data, nil
}

// TelegramHash computes the hex HMAC-SHA-256 of the data-check-string using
// SHA-256(botToken) as key
func TelegramHash(data map[string]string, botToken string) string {
	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(DataCheckString(data)))
	return hex.EncodeToString(mac.Sum(nil))
}

// DataCheckString joins key=value pairs sorted by key with newlines
func DataCheckString(data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+data[k])
	}
	return strings.Join(lines, "\n")
}
