// Package types defines the shared domain records for the storefront:
// users, products, cart lines, orders, and message content.
//
// These are plain data types with no behavior beyond small helpers; the
// services in internal/ own all mutation rules.
package types
