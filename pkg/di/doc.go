// Package di builds the application from a config.Config: the document
// store, the social services, the query cache with its bindings and, when
// configured, the NATS invalidation bridge.
package di
