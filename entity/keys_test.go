package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyBuilders(t *testing.T) {
	t.Parallel()

	pk, sk := UserProfileKey("u1")
	assert.Equal(t, "USER#u1", pk)
	assert.Equal(t, "PROFILE", sk)

	gsi1pk, gsi1sk := UserEmailGSI("amara@example.com", "u1")
	assert.Equal(t, "EMAIL#amara@example.com", gsi1pk)
	assert.Equal(t, "USER#u1", gsi1sk)

	gsi4pk, gsi4sk := UserTenantGSI("t1", "u1")
	assert.Equal(t, "TENANT#t1#USERS", gsi4pk)
	assert.Equal(t, "USER#u1", gsi4sk)

	pk, sk = CircleMemberKey("c1", "u1")
	assert.Equal(t, "CIRCLE#c1", pk)
	assert.Equal(t, "MEMBER#u1", sk)

	pk, sk = UserCircleKey("u1", "c1")
	assert.Equal(t, "USER#u1", pk)
	assert.Equal(t, "CIRCLE#c1", sk)

	pk, sk = FeedbackKey("img1", "f1")
	assert.Equal(t, "FEEDBACK#IMAGE#img1", pk)
	assert.Equal(t, "FEEDBACK#f1", sk)

	gsi3pk, gsi3sk := IncidentStatusGSI("open", "p1", "2024-01-15T10:30:00.000Z")
	assert.Equal(t, "INCIDENT_STATUS#open", gsi3pk)
	assert.Equal(t, "PRIORITY#p1#2024-01-15T10:30:00.000Z", gsi3sk)

	gsi2pk, gsi2sk := AdvisoryStatusGSI("queued", "2024-01-15T10:30:00.000Z")
	assert.Equal(t, "ADVISORY_STATUS#queued", gsi2pk)
	assert.Equal(t, "2024-01-15T10:30:00.000Z", gsi2sk)

	gsi2pk, gsi2sk = CohortGSI("newly_diagnosed", "u1")
	assert.Equal(t, "COHORT#newly_diagnosed", gsi2pk)
	assert.Equal(t, "USER#u1", gsi2sk)
}

func TestParseISORequiresCanonicalForm(t *testing.T) {
	t.Parallel()

	canonical := "2024-01-15T10:30:00.123Z"
	parsed, ok := ParseISO(canonical)
	require.True(t, ok)
	assert.Equal(t, canonical, parsed.UTC().Format(ISOLayout))

	for _, bad := range []string{
		"2024-01-15T10:30:00Z",
		"2024-01-15T10:30:00.123456Z",
		"2024-01-15 10:30:00.123Z",
		"2024-01-15",
		"",
	} {
		_, ok := ParseISO(bad)
		assert.False(t, ok, "expected %q to be rejected", bad)
	}
}

func TestNowISORoundTrips(t *testing.T) {
	t.Parallel()

	now := NowISO()
	parsed, ok := ParseISO(now)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), parsed, time.Minute)
}
