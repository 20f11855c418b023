// Package hubclient implements the HTTP client for the Hub01 shop API.
//
// It exposes the two operations the publishing workflow needs: probing
// whether a project version already exists and creating a version by
// uploading manifest fields together with the zipped payload. Failures are
// surfaced as structured APIError values, with a sentinel for version
// conflicts so callers can honor an overwrite flag.
package hubclient
