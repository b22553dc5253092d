package irembopay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func signPayload(t string, body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(t + "#"))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"success":true,"data":{"invoiceNumber":"880123456789"}}`)
	now := time.Unix(1700000000, 0)

	t.Run("ValidSignature", func(t *testing.T) {
		ts := fmt.Sprintf("%d", now.Unix())
		header := fmt.Sprintf("t=%s,s=%s", ts, signPayload(ts, body, secret))

		err := VerifySignature(body, header, secret, now)
		assert.NoError(t, err)
	})

	t.Run("ComponentOrderInsensitive", func(t *testing.T) {
		ts := fmt.Sprintf("%d", now.Unix())
		header := fmt.Sprintf("s=%s,t=%s", signPayload(ts, body, secret), ts)

		err := VerifySignature(body, header, secret, now)
		assert.NoError(t, err)
	})

	t.Run("MutatedBodyInvalidatesSignature", func(t *testing.T) {
		ts := fmt.Sprintf("%d", now.Unix())
		header := fmt.Sprintf("t=%s,s=%s", ts, signPayload(ts, body, secret))

		mutated := append([]byte{}, body...)
		mutated[0] = '['

		err := VerifySignature(mutated, header, secret, now)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("MutatedTimestampInvalidatesSignature", func(t *testing.T) {
		ts := fmt.Sprintf("%d", now.Unix())
		header := fmt.Sprintf("t=%d,s=%s", now.Unix()+1, signPayload(ts, body, secret))

		err := VerifySignature(body, header, secret, now)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		ts := fmt.Sprintf("%d", now.Unix())
		header := fmt.Sprintf("t=%s,s=%s", ts, signPayload(ts, body, "other secret"))

		err := VerifySignature(body, header, secret, now)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("ReplayOutsideWindowRejected", func(t *testing.T) {
		stale := now.Add(-301 * time.Second)
		ts := fmt.Sprintf("%d", stale.Unix())
		header := fmt.Sprintf("t=%s,s=%s", ts, signPayload(ts, body, secret))

		err := VerifySignature(body, header, secret, now)
		assert.ErrorIs(t, err, ErrStaleTimestamp)
	})

	t.Run("FutureTimestampOutsideWindowRejected", func(t *testing.T) {
		future := now.Add(301 * time.Second)
		ts := fmt.Sprintf("%d", future.Unix())
		header := fmt.Sprintf("t=%s,s=%s", ts, signPayload(ts, body, secret))

		err := VerifySignature(body, header, secret, now)
		assert.ErrorIs(t, err, ErrStaleTimestamp)
	})

	t.Run("WithinWindowAccepted", func(t *testing.T) {
		recent := now.Add(-299 * time.Second)
		ts := fmt.Sprintf("%d", recent.Unix())
		header := fmt.Sprintf("t=%s,s=%s", ts, signPayload(ts, body, secret))

		err := VerifySignature(body, header, secret, now)
		assert.NoError(t, err)
	})

	t.Run("MissingHeaderIsFailure", func(t *testing.T) {
		err := VerifySignature(body, "", secret, now)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("MalformedHeaderIsFailure", func(t *testing.T) {
		err := VerifySignature(body, "t=1700000000", secret, now)
		assert.ErrorIs(t, err, ErrInvalidSignature)

		err = VerifySignature(body, "s=deadbeef", secret, now)
		assert.ErrorIs(t, err, ErrInvalidSignature)

		err = VerifySignature(body, "garbage", secret, now)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("NonNumericTimestampRejected", func(t *testing.T) {
		header := fmt.Sprintf("t=abc,s=%s", signPayload("abc", body, secret))

		err := VerifySignature(body, header, secret, now)
		assert.ErrorIs(t, err, ErrStaleTimestamp)
	})

	t.Run("NoSecretSkipsVerification", func(t *testing.T) {
		err := VerifySignature(body, "t=1,s=bogus", "", now)
		assert.NoError(t, err)

		err = VerifySignature(body, "", "", now)
		assert.NoError(t, err)
	})
}
