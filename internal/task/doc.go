// Package task runs background work on a bounded in-memory queue drained by a
// fixed pool of workers. Personalization estimates are the main producer:
// each fetch-and-fit cycle for a regimen is submitted here so HTTP handlers
// never wait on it.
package task
