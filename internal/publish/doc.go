// Package publish implements the single-release publishing workflow for the
// hub01 CLI.
//
// It exposes CommandBuilder for wiring the publish Cobra command and Service
// for driving the workflow programmatically: repository setup, version
// resolution, manifest generation, payload packaging, and upload to the Hub01
// shop API. The mass-publish command reuses Service for its per-tag loop.
package publish
