// Package models holds the GORM row types of the fiscal schema and their
// mapping to domain aggregates. Domain types carry no ORM tags; each row
// type here has a ToDomain and a From<Aggregate> counterpart used by the
// repositories in the parent package.
//
// base.go has the shared row header, tax.go the fiscal tables (NCM,
// product tax, exemptions, state rates, calculation lines) and sales.go
// the store tables the calculator reads (orders, products, customers).
package models
