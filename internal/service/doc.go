// Package service holds the application operations behind the HTTP handlers:
// account lifecycle and blood test bookkeeping.
package service
