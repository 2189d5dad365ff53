package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessGate(t *testing.T) {
	cases := []struct {
		status  AccountStatus
		blocked bool
	}{
		{StatusActive, false},
		{StatusApproved, false},
		{StatusPending, true},
		{StatusRejected, true},
		{StatusSuspended, true},
		{AccountStatus("weird"), true},
	}

	for _, tc := range cases {
		user := &User{Role: RoleVendor, Status: tc.status}
		err := user.AccessGate()
		if tc.blocked {
			assert.Error(t, err, "status %s should block access", tc.status)
		} else {
			assert.NoError(t, err, "status %s should allow access", tc.status)
		}
	}
}

func TestAccessGateAdminBypass(t *testing.T) {
	for _, status := range []AccountStatus{StatusPending, StatusRejected, StatusSuspended} {
		admin := &User{Role: RoleAdmin, Status: status}
		assert.NoError(t, admin.AccessGate())
	}
}

func TestAccessGateRejectedIncludesReason(t *testing.T) {
	user := &User{Role: RoleSupplier, Status: StatusRejected, RejectionReason: "incomplete documents"}
	err := user.AccessGate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete documents")
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" Vendor ")
	require.True(t, ok)
	assert.Equal(t, RoleVendor, role)

	_, ok = ParseRole("customer")
	assert.False(t, ok)
}

func TestDisplayNameFallsBackToEmail(t *testing.T) {
	user := &User{Email: "x@example.com"}
	assert.Equal(t, "x@example.com", user.DisplayName())

	user.FirstName = "Aziza"
	user.LastName = "Karimova"
	assert.Equal(t, "Aziza Karimova", user.DisplayName())
}
