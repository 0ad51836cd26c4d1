package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/phizone/record-api/internal/models"
)

func testSession() *models.PlaySession {
	return &models.PlaySession{
		Token:           "token",
		ChartID:         uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		ConfigurationID: uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		ApplicationID:   uuid.MustParse("33333333-3333-3333-3333-333333333333"),
		PlayerID:        uuid.MustParse("44444444-4444-4444-4444-444444444444"),
		IssuedAtMillis:  1700000000000,
	}
}

func TestPlaySignature_Deterministic(t *testing.T) {
	sess := testSession()
	sig1 := PlaySignature(sess, 995, 3, 2, 0, 0, 1000, "secret")
	sig2 := PlaySignature(sess, 995, 3, 2, 0, 0, 1000, "secret")
	assert.Equal(t, sig1, sig2)
	assert.NotEmpty(t, sig1)
}

func TestPlaySignature_BindsEveryField(t *testing.T) {
	sess := testSession()
	base := PlaySignature(sess, 995, 3, 2, 0, 0, 1000, "secret")

	assert.NotEqual(t, base, PlaySignature(sess, 996, 3, 2, 0, 0, 1000, "secret"), "perfect count")
	assert.NotEqual(t, base, PlaySignature(sess, 995, 3, 2, 0, 0, 999, "secret"), "max combo")
	assert.NotEqual(t, base, PlaySignature(sess, 995, 3, 2, 0, 0, 1000, "other-secret"), "application secret")

	replayed := *sess
	replayed.IssuedAtMillis++
	assert.NotEqual(t, base, PlaySignature(&replayed, 995, 3, 2, 0, 0, 1000, "secret"), "issuance timestamp")
}

func TestVerifyPlaySignature(t *testing.T) {
	sess := testSession()
	sig := PlaySignature(sess, 995, 3, 2, 0, 0, 1000, "secret")

	assert.True(t, VerifyPlaySignature(sess, 995, 3, 2, 0, 0, 1000, "secret", sig))

	// Comparison is case-insensitive.
	assert.True(t, VerifyPlaySignature(sess, 995, 3, 2, 0, 0, 1000, "secret", strings.ToLower(sig)))
	assert.True(t, VerifyPlaySignature(sess, 995, 3, 2, 0, 0, 1000, "secret", strings.ToUpper(sig)))
}

func TestVerifyPlaySignature_RejectsTampering(t *testing.T) {
	sess := testSession()
	sig := PlaySignature(sess, 995, 3, 2, 0, 0, 1000, "secret")

	// Flip one character of the signature.
	flipped := []byte(sig)
	if flipped[0] == 'A' {
		flipped[0] = 'B'
	} else {
		flipped[0] = 'A'
	}
	assert.False(t, VerifyPlaySignature(sess, 995, 3, 2, 0, 0, 1000, "secret", string(flipped)))

	// Altered judgment counts fail against the original signature.
	assert.False(t, VerifyPlaySignature(sess, 1000, 0, 0, 0, 0, 1000, "secret", sig))

	// A different application cannot forge a signature for this payload.
	assert.False(t, VerifyPlaySignature(sess, 995, 3, 2, 0, 0, 1000, "stolen", sig))
}

func TestQualifiesForBonus(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name      string
		accuracy  float64
		priorBest *float64
		want      bool
	}{
		{"first perfect play on chart", 1.0, nil, true},
		{"perfect improving on imperfect", 1.0, f(0.999), true},
		{"repeat perfect", 1.0, f(1.0), false},
		{"crossing into 98 from high 97", 0.985, f(0.975), true},
		{"crossing into 98 from below 97", 0.985, f(0.96), false},
		{"improvement of a percent above 98", 0.995, f(0.98), true},
		{"small improvement above 98", 0.984, f(0.98), false},
		{"no prior, below perfect", 0.99, nil, false},
		{"worse than prior", 0.97, f(0.99), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, qualifiesForBonus(tt.accuracy, tt.priorBest))
		})
	}
}
