// Package api exposes the learner progression engine over HTTP: event
// submission and the progress, due-review, and challenge projections. It
// validates requests, enforces that a learner can only reach their own
// state, and maps service errors to sanitized responses.
package api
