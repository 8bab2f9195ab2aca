// Package mocks holds hand-written test doubles shared across packages.
//
// Most mocks expose one Fn field per interface method; a nil Fn falls back to
// a simple in-memory behavior. TestifyMockUserStore is the exception and is
// driven through testify/mock expectations.
package mocks
