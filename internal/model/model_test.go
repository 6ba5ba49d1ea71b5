package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, s := range []string{"ADMIN", "landlord", "Tenant"} {
		_, err := ParseRole(s)
		require.NoError(t, err, s)
	}
	_, err := ParseRole("superuser")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestPurchaseRequestStatusTerminal(t *testing.T) {
	terminal := []PurchaseRequestStatus{RequestRejected, RequestCancelled, RequestPaymentCompleted, RequestPaymentFailed}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), string(s))
	}
	open := []PurchaseRequestStatus{RequestPending, RequestApproved, RequestPaymentPending}
	for _, s := range open {
		assert.False(t, s.Terminal(), string(s))
	}
}

func TestPropertyForSale(t *testing.T) {
	assert.False(t, (&Property{ListingType: ListingForRent}).ForSale())
	assert.True(t, (&Property{ListingType: ListingForSale}).ForSale())
	assert.True(t, (&Property{ListingType: ListingBoth}).ForSale())
}
