// Package tracking implements the Tufesa parcel-tracking tool: the upstream
// API client, the tolerant response normalizer, and the tool handler that
// ties them together.
//
// # Upstream Shape
//
// The carrier API returns a JSON array with zero or one tracking object.
// Field names vary between API revisions: most fields exist in a
// human-readable ("legible") variant and a raw code variant, values may
// arrive as strings or numbers, and the event history may be missing or
// empty. The normalizer absorbs all of that behind one stable Result
// contract where every field has a defined fallback.
//
// # Outcomes
//
// A lookup resolves to exactly one of four outcomes: a populated Result,
// or a classified failure (connection, not_found, no_movements). Failures
// are data, not errors; the tool handler renders them as ordinary text
// responses so calling agents never see a protocol-level fault for a
// business outcome.
package tracking
