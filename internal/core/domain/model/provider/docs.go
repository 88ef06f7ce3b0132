// Package provider models local production providers: who they are, what they
// can produce, where they are and how much weekly capacity they offer.
//
// The package includes:
//   - Provider: the aggregate consumed read-only by the matching engine
//   - Capability: a normalized product-type tag ("t-shirt", "mug")
//   - Load: the capacity ledger entry (reserved vs capacity per week)
//
// Key business rules:
//   - A provider needs a business name, a location and at least one capability
//   - Capacity per week is never negative
//   - Inactive providers are never selected for new orders
//   - Load.Reserve never lets reserved exceed capacity; Load.Release floors at zero
package provider
