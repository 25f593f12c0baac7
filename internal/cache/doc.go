// Package cache provides a time-bounded value cache used to keep recent
// tracking lookups from re-hitting the carrier API within a configurable
// window.
package cache
