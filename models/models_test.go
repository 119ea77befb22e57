package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceFor(t *testing.T) {
	price, ok := PriceFor(PassTypeDay)
	assert.True(t, ok)
	assert.Equal(t, 500, price)

	price, ok = PriceFor(PassTypeAllAccess)
	assert.True(t, ok)
	assert.Equal(t, 1500, price)

	_, ok = PriceFor("vip_pass")
	assert.False(t, ok)
}

func TestPassTypes_ReturnsCopy(t *testing.T) {
	table := PassTypes()
	table[PassTypeDay] = 1

	price, ok := PriceFor(PassTypeDay)
	assert.True(t, ok)
	assert.Equal(t, 500, price, "mutating the returned table must not change the canonical prices")
}

func TestPass_JSONSerialization(t *testing.T) {
	usedAt := time.Now()

	pass := Pass{
		ID:        "pass-123",
		UserID:    "user-456",
		PassType:  PassTypeProshow,
		Amount:    1000,
		PaymentID: "payment-789",
		Status:    PassStatusUsed,
		CreatedAt: time.Now(),
		UsedAt:    &usedAt,
		ScannedBy: "organizer-1",
	}

	jsonData, err := json.Marshal(pass)
	require.NoError(t, err)

	var unmarshaled Pass
	err = json.Unmarshal(jsonData, &unmarshaled)
	require.NoError(t, err)

	assert.Equal(t, pass.ID, unmarshaled.ID)
	assert.Equal(t, pass.PassType, unmarshaled.PassType)
	assert.Equal(t, pass.Status, unmarshaled.Status)
	assert.Equal(t, pass.ScannedBy, unmarshaled.ScannedBy)
	require.NotNil(t, unmarshaled.UsedAt)
	assert.WithinDuration(t, usedAt, *unmarshaled.UsedAt, time.Second)
}

func TestTeam_FindMember(t *testing.T) {
	team := Team{
		ID:       "team-1",
		TeamName: "Quiz Squad",
		Members: []TeamMember{
			{MemberID: "m1", Name: "A"},
			{MemberID: "m2", Name: "B"},
		},
	}

	assert.Equal(t, 0, team.FindMember("m1"))
	assert.Equal(t, 1, team.FindMember("m2"))
	assert.Equal(t, -1, team.FindMember("m3"))
}
