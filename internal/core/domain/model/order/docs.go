// Package order provides the Order aggregate and the state machine that
// governs its fulfillment lifecycle.
//
// The package includes:
//   - Order: the aggregate root (identity, priced bundle, customization, status)
//   - Status: the lifecycle states and the actor-checked transition table
//   - Actor: the role requesting a transition (matching engine, provider, client, admin)
//   - Customization: typed personalization fields plus a validated extras map
//   - Contact: the client's notification channels
//   - HistoryRecord: the immutable audit entry written for every transition
//
// Key business rules:
//   - Orders are created pending, with total price = unit price × quantity
//   - The provider reference is set exactly while the order is assigned,
//     in production, shipped or delivered
//   - Happy path: pending -> assigned -> in_production -> shipped -> delivered
//   - Clients may cancel only from pending or assigned
//   - Admins may refund only delivered or cancelled orders
//   - Every transition bumps the version used for optimistic concurrency
package order
