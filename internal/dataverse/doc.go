// doc.go - Package documentation for dataverse.

// Package dataverse reads solution component summaries from the Dataverse
// Web API and matches them against materialized grid rows.
package dataverse
