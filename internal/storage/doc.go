// Package storage provides SQLite-based persistence for the storefront.
//
// The storage layer manages:
//   - Known users (upserted on every interaction)
//   - The product catalog
//   - Carts, keyed by (user, product)
//   - Orders with frozen line-item snapshots
//
// # Database Schema
//
// Tables:
//   - users: chat identities
//   - products: catalog entries
//   - orders: purchase records with captured customer details
//   - order_items: frozen name/price/quantity snapshots per order
//   - cart: per-user quantities
//   - order_seq: single-row counter backing ORD-NNN id assignment
//
// order_items references products with ON DELETE RESTRICT, so deleting a
// product that appears in any order fails at the store.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore("storebot.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	product, err := store.GetProduct(ctx, 42)
//
// Order creation runs in a single transaction: the counter row is bumped,
// the order row inserted, and the item snapshots written together, so the
// assigned ORD-NNN id cannot collide under concurrent checkouts.
package storage
