// Package models defines the records kept by the sandbox settlement server.
//
// These are server-side records, not the client's view of them. They carry
// the owning merchant and the soft-delete marker, which the REST surface
// never exposes. The client-side shapes live in pkg/settlement.
//
// Timestamps are Unix seconds. Amounts are decimal.Decimal and stored as
// text so no precision is lost in SQLite.
package models
