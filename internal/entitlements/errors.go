package entitlements

import "errors"

// ErrEntitlementExhausted indicates neither an active subscription nor trial
// uses remain.
var ErrEntitlementExhausted = errors.New("entitlement exhausted")
