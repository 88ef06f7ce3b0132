// Package kernel provides the value objects shared by every aggregate of the
// fulfillment domain.
//
// The package includes:
//   - UUID: identifier value object wrapping github.com/google/uuid
//   - Location: country / region / city triple used for provider matching
//   - Money: non-negative amount in minor currency units
//
// All value objects are immutable. Zero values are invalid and fail Validate,
// so values arriving from persistence or transport must be rebuilt through
// the constructors.
package kernel
