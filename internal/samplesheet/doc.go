// Package samplesheet validates and parses per-unit sample-mapping files.
//
// A sample sheet is a comma-delimited file with the exact header
// `Barcode,Bio Sample` and one (barcode-pair-code, sample-name) row per
// demultiplexed sample. The contract is strict: Unix line endings only,
// exactly two columns, non-empty sample names restricted to
// [A-Za-z0-9_.-]+, and barcode codes and sample names each unique within
// the file. Validation stops at the first violation and reports its line
// number so the failure message stays unambiguous for a human operator.
package samplesheet
