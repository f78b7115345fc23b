// Package metrics provides observability hooks for the mdls language server.
//
// # Design Philosophy
//
// This package implements the Null Object pattern to enable metrics collection
// without requiring explicit nil checks throughout the codebase. By default,
// all components use NoopRecorder which implements the Recorder interface with
// no-op methods.
//
// # Usage Pattern
//
// Components receive a Recorder through dependency injection:
//
//	cache := doccache.New[*links.DocumentLinks]("links", recorder)
//
// When `metrics.listen` is configured the server swaps in a PrometheusRecorder
// and exposes the registry through HTTPHandler.
package metrics
