package license

import "errors"

var (
	// ErrNoLicenseFile is returned when no license token is installed.
	ErrNoLicenseFile = errors.New("license file not found")
	// ErrLicenseUnreadable is returned when the license file exists but cannot be read.
	ErrLicenseUnreadable = errors.New("license file unreadable")
	// ErrProductNotCovered is returned when a valid token does not list the product.
	ErrProductNotCovered = errors.New("license does not cover product")
	// ErrNoPublicKey is returned when token verification has no key configured.
	ErrNoPublicKey = errors.New("license public key not configured")
	// ErrNotScheduled is returned by Tick when no periodic check is armed.
	ErrNotScheduled = errors.New("license check not scheduled")
)
