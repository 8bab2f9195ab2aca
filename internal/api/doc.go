// Package api adapts HTTP requests onto the simulation engine, the regimen
// workspace and the account and blood test services. Handlers decode and
// validate DTOs, call one service operation and map errors to sanitized
// JSON responses.
package api
