// Package events decouples request handling from background work.
//
// The workspace emits a TaskRequestEvent when a regimen asks for a
// personalized decay constant. Handlers subscribed to that event type turn it
// into a task for the background runner, so the workspace never imports the
// task or personalization packages directly.
package events
