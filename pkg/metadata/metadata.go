// Package metadata manages the shared account-ownership dataset: which
// workload an account belongs to, who runs it, and where alerts should go.
package metadata

import "context"

// Record is the ownership metadata of one account as harvested from the
// CMDB.
type Record struct {
	Name            string `json:"name"`
	Workload        string `json:"workload"`
	WorkloadType    string `json:"workload_type"`
	Environment     string `json:"environment"`
	AssignmentGroup string `json:"assignment_group"`
	Email           string `json:"email"`
}

// Mapping maps account IDs to their metadata records.
type Mapping map[string]Record

// Store loads and persists the metadata mapping.
type Store interface {
	// Load returns the stored mapping. Any failure degrades to an empty
	// mapping: budget runs must work without metadata, just without
	// workload addresses.
	Load(ctx context.Context) Mapping

	// Save replaces the stored mapping.
	Save(ctx context.Context, m Mapping) error
}
