// Package ingest validates candidate reference files against the active
// quota policy and picks the transfer strategy for an accepted batch.
package ingest

import (
	"fmt"
	"strings"

	"planforge/internal/quota"
)

// File describes one reference document offered for plan generation.
// Path is the local content handle; Size and ContentType are resolved by
// the caller before validation so the validator stays pure.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Path        string
}

// Result is the outcome of validating one candidate batch.
// Accepted and Errors are independent: partial acceptance is the default.
type Result struct {
	Accepted []File
	Errors   []string
}

// ValidationError carries every quota violation found in a batch.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("file validation failed: %s", strings.Join(e.Messages, "; "))
}

// Validate checks a candidate batch against the policy and the already
// selected files. Rules run in a fixed order and all violations are
// collected rather than aborting on the first failure:
//
//  1. Files rejected upstream by type filtering contribute one aggregated
//     error naming them all.
//  2. If selected+candidates would exceed the file-count limit, the whole
//     candidate batch is rejected with a single error and the per-file
//     checks are skipped for this call.
//  3. Otherwise each candidate is checked in order: individual size cap,
//     running total cap (seeded from the selected files' total), and
//     duplicate name+size against the selection. Files that pass are
//     accepted even when siblings in the same batch fail.
//
// Validate never mutates the selection; the caller owns that state.
func Validate(selected, candidates []File, typeRejected []string, policy quota.Policy) Result {
	var res Result

	if len(typeRejected) > 0 {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"unsupported file type: %s", strings.Join(typeRejected, ", ")))
	}

	if len(candidates) == 0 {
		return res
	}

	if len(selected)+len(candidates) > policy.MaxFileCount {
		res.Errors = append(res.Errors, fmt.Sprintf(
			"adding %d file(s) would exceed the limit of %d files",
			len(candidates), policy.MaxFileCount))
		return res
	}

	total := int64(0)
	for _, f := range selected {
		total += f.Size
	}

	for _, f := range candidates {
		if f.Size > policy.MaxFileBytes {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"%s is too large (%s, limit %s)",
				f.Name, formatBytes(f.Size), formatBytes(policy.MaxFileBytes)))
			continue
		}
		if total+f.Size > policy.MaxTotalBytes {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"%s would exceed the total size limit of %s",
				f.Name, formatBytes(policy.MaxTotalBytes)))
			continue
		}
		if isDuplicate(selected, f) {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"%s is already attached", f.Name))
			continue
		}
		res.Accepted = append(res.Accepted, f)
		total += f.Size
	}

	return res
}

// isDuplicate matches on identical name and byte size.
func isDuplicate(selected []File, f File) bool {
	for _, s := range selected {
		if s.Name == f.Name && s.Size == f.Size {
			return true
		}
	}
	return false
}

func formatBytes(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fMB", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fKB", float64(n)/1_000)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
