package validate_test

import (
	"testing"

	"github.com/aretw0/charter/pkg/domain"
	"github.com/aretw0/charter/pkg/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail(t *testing.T) {
	assert.NoError(t, validate.Email("email", "founder@example.com"))
	assert.NoError(t, validate.Email("email", "a.b+tag@sub.domain.io"))

	for _, bad := range []string{"", "plainaddress", "@no-local.com", "user@", "user@nodot"} {
		err := validate.Email("email", bad)
		require.Error(t, err, "expected failure for %q", bad)

		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "email", verr.Field)
	}
}

func TestPhone(t *testing.T) {
	assert.NoError(t, validate.Phone("phone", "+1-302-555-0180"))
	assert.NoError(t, validate.Phone("phone", "(307) 555 0142"))
	assert.Error(t, validate.Phone("phone", ""))
	assert.Error(t, validate.Phone("phone", "call me"))

	assert.NoError(t, validate.OptionalPhone("phone", ""))
	assert.Error(t, validate.OptionalPhone("phone", "nope"))
}

func TestAddressComplete(t *testing.T) {
	full := &domain.Address{
		Line1:      "1209 Orange Street",
		City:       "Wilmington",
		State:      "DE",
		PostalCode: "19801",
		Country:    "US",
	}
	assert.NoError(t, validate.AddressComplete("address", full))

	// Line2 is the only optional component.
	missingCity := *full
	missingCity.City = ""
	err := validate.AddressComplete("address", &missingCity)
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "address.city", verr.Field)

	assert.Error(t, validate.AddressComplete("address", nil))
}

func TestOwnershipPercent(t *testing.T) {
	assert.NoError(t, validate.OwnershipPercent("ownership", 0.01))
	assert.NoError(t, validate.OwnershipPercent("ownership", 100))
	assert.Error(t, validate.OwnershipPercent("ownership", 0))
	assert.Error(t, validate.OwnershipPercent("ownership", -5))
	assert.Error(t, validate.OwnershipPercent("ownership", 100.5))
}

func TestOwnershipSumComplete(t *testing.T) {
	assert.True(t, validate.OwnershipSumComplete(100))
	assert.True(t, validate.OwnershipSumComplete(99.995))
	assert.True(t, validate.OwnershipSumComplete(100.009))
	assert.False(t, validate.OwnershipSumComplete(99.9))
	assert.False(t, validate.OwnershipSumComplete(110))
}

func TestNameBounds(t *testing.T) {
	assert.Error(t, validate.BaseName("base_name", "ab", 3, 200))
	assert.NoError(t, validate.BaseName("base_name", "Acme", 3, 200))
	assert.Error(t, validate.BaseName("base_name", string(make([]byte, 201)), 3, 200))

	assert.NoError(t, validate.FullName("full_name", "Acme LLC", 245))
	long := make([]byte, 246)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, validate.FullName("full_name", string(long), 245))
}

func TestShares(t *testing.T) {
	assert.NoError(t, validate.SharesInRange("authorized_shares", 10_000_000, 1_000_000_000))
	assert.Error(t, validate.SharesInRange("authorized_shares", 0, 1_000_000_000))
	assert.Error(t, validate.SharesInRange("authorized_shares", 2_000_000_000, 1_000_000_000))

	assert.NoError(t, validate.ParValue("par_value_per_share", 0.0001))
	assert.Error(t, validate.ParValue("par_value_per_share", 0))
	assert.Error(t, validate.ParValue("par_value_per_share", -1))
}
