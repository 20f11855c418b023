// Package masspublish implements the batch publishing workflow for the hub01
// CLI.
//
// It matches Git tags against a regular expression, confirms the selection
// with the operator, generates one manifest per tag through the publish
// service, offers the manifests for review, and uploads them sequentially
// with per-tag failure isolation and a final summary.
package masspublish
