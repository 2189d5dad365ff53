package models

import (
	"fmt"
	"strings"
)

// Role identifies what kind of actor an account is. The set is closed;
// anything else coming off the wire is rejected at parse time.
type Role string

const (
	RoleVendor   Role = "vendor"
	RoleSupplier Role = "supplier"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a raw string onto the closed role set.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleVendor:
		return RoleVendor, true
	case RoleSupplier:
		return RoleSupplier, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// AccountStatus is the lifecycle state of an account. Only admin actions
// move an account out of pending.
type AccountStatus string

const (
	StatusPending   AccountStatus = "pending"
	StatusApproved  AccountStatus = "approved"
	StatusRejected  AccountStatus = "rejected"
	StatusActive    AccountStatus = "active"
	StatusSuspended AccountStatus = "suspended"
)

// AccessError is returned by AccessGate when an account's status blocks API
// access. Handlers map it to 403.
type AccessError struct {
	Status AccountStatus
	Reason string
}

func (e *AccessError) Error() string {
	switch e.Status {
	case StatusPending:
		return "account is pending approval"
	case StatusRejected:
		if e.Reason != "" {
			return fmt.Sprintf("account was rejected: %s", e.Reason)
		}
		return "account was rejected"
	case StatusSuspended:
		return "account is suspended"
	}
	return "access denied"
}

// User represents an authenticated account: vendor, supplier or admin.
type User struct {
	BaseModel
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	Email           string        `gorm:"uniqueIndex" json:"email"`
	Phone           string        `json:"phone"`
	PasswordHash    string        `json:"-"`
	Role            Role          `gorm:"index" json:"role"`
	Status          AccountStatus `gorm:"index" json:"status"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	Address         string        `json:"address"`
	Latitude        *float64      `json:"latitude"`
	Longitude       *float64      `json:"longitude"`

	VendorProfile   *VendorProfile   `json:"vendor_profile,omitempty"`
	SupplierProfile *SupplierProfile `json:"supplier_profile,omitempty"`
}

// DisplayName is the name denormalized onto ratings and order snapshots.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// AccessGate applies the status gate shared by login and request
// authorization. Admins bypass the gate entirely.
func (u *User) AccessGate() error {
	if u.Role == RoleAdmin {
		return nil
	}

	switch u.Status {
	case StatusActive, StatusApproved:
		return nil
	case StatusPending, StatusRejected, StatusSuspended:
		return &AccessError{Status: u.Status, Reason: u.RejectionReason}
	}
	return &AccessError{Status: u.Status}
}
