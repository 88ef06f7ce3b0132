// Package services provides domain services that work across several
// aggregates of the fulfillment domain without owning state of their own.
//
// The package includes:
//   - Matcher: scores and ranks candidate providers for a pending order
//   - Analytics: revenue-by-period, leaderboards and provider ratings computed
//     from order and review history alone
//
// Both are pure and deterministic: the same input always yields the same
// ranking or view, which keeps them testable with fixture datasets.
package services
