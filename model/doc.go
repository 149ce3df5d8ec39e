// Package model defines the shared value types flowing through the
// listflow pipeline: the opaque list Item and the ResultSet computed for
// a filter fingerprint.
package model
