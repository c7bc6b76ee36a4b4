/*
Package observability provides tools for monitoring states and loaders.

Metrics exposes Prometheus collectors fed through domain.LifecycleHooks, so the same
hooks value can be passed to both the state builders and the loader.
*/
package observability
