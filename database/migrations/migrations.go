// Package migrations holds the SQL schema migrations. Each file registers
// its migrations from init(); cmd/souq imports this package for its side
// effects.
package migrations
