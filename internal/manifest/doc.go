// Package manifest implements version resolution and release manifest
// assembly for the hub01 publishing workflow.
//
// Version resolution follows a strict priority: an explicit modinfo.json
// version inside the project subfolder wins, then a Git tag pointing at the
// checked out commit, then a timestamp derived from the commit date. The
// assembled manifest serializes to a byte-stable JSON document consumed by
// the upload step.
package manifest
