// Package store defines the persistence interfaces for accounts and blood
// tests. Implementations live under internal/platform.
package store
