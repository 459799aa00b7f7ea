// Package events carries query cache invalidations between processes over
// NATS, so a write served by one process drops stale reads in the others.
package events
