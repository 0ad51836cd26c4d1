package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/phizone/record-api/internal/models"
)

// PlaySignature computes the HMAC-SHA256 over the judgment payload and the
// session's issuance timestamp, keyed by the owning application's shared
// secret, base64-encoded. It binds the entire result to a secret only the
// legitimate client holds: altered counts, a replayed timestamp or a foreign
// application all produce a different signature.
func PlaySignature(sess *models.PlaySession, perfect, goodEarly, goodLate, bad, miss, maxCombo int, secret string) string {
	payload := fmt.Sprintf("%s:%s:%s:%d:%d:%d:%d:%d:%d:%d",
		sess.ChartID, sess.ConfigurationID, sess.PlayerID,
		maxCombo, perfect, goodEarly, goodLate, bad, miss,
		sess.IssuedAtMillis)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyPlaySignature compares a caller-supplied signature against the
// expected one, case-insensitively.
func VerifyPlaySignature(sess *models.PlaySession, perfect, goodEarly, goodLate, bad, miss, maxCombo int, secret, supplied string) bool {
	expected := PlaySignature(sess, perfect, goodEarly, goodLate, bad, miss, maxCombo, secret)
	return strings.EqualFold(expected, supplied)
}
