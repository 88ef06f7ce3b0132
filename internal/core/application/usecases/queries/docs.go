// Package queries holds the read side of the fulfillment service: order
// views, audit history, notification logs and analytics. Queries read
// committed state through the repository ports and never change it.
package queries
