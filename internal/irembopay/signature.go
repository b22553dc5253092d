package irembopay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the request header carrying the webhook signature,
// formatted as "t=<unix_ts>,s=<hex_hmac>".
const SignatureHeader = "irembopay-signature"

// ReplayWindow is the tolerance around the signed timestamp within which a
// webhook is accepted.
const ReplayWindow = 300 * time.Second

var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrStaleTimestamp   = errors.New("timestamp too old or invalid")
)

// VerifySignature checks authenticity and freshness of a raw webhook body
// against the "t=...,s=..." header. The signed payload is "<t>#<body>",
// keyed with the merchant secret. An empty secret disables verification
// entirely; a missing or malformed header with a secret configured is a
// verification failure, not an unsigned request.
func VerifySignature(body []byte, header, secret string, now time.Time) error {
	if secret == "" {
		return nil
	}

	t, s, ok := parseSignatureHeader(header)
	if !ok {
		return ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(t, 10, 64)
	if err != nil || ts <= 0 {
		return ErrStaleTimestamp
	}
	age := now.Unix() - ts
	if age < 0 {
		age = -age
	}
	if age > int64(ReplayWindow/time.Second) {
		return ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(t))
	mac.Write([]byte("#"))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(s)) {
		return ErrInvalidSignature
	}

	return nil
}

// parseSignatureHeader splits "t=<ts>,s=<sig>"; component order is not
// significant. Both components must be present.
func parseSignatureHeader(header string) (t, s string, ok bool) {
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(k) {
		case "t":
			t = strings.TrimSpace(v)
		case "s":
			s = strings.TrimSpace(v)
		}
	}
	if t == "" || s == "" {
		return "", "", false
	}
	return t, s, true
}
