package run

import "path/filepath"

// Layout methods derive every path under the run's output tree in one place
// so stages never compute paths ad hoc. Each stage writes to its own
// disjoint subfolder; no lock is required across stages.

// StagingDir holds verified copies of the raw inputs.
func (r *Run) StagingDir() string { return filepath.Join(r.OutputDir, "inputs") }

// StagedBAM is the staged copy of a unit's input BAM.
func (r *Run) StagedBAM(unit string) string {
	return filepath.Join(r.StagingDir(), unit+".bam")
}

// StagedSampleSheet is the staged copy of a unit's sample sheet.
func (r *Run) StagedSampleSheet(unit string) string {
	return filepath.Join(r.StagingDir(), unit+".csv")
}

// UnitDir is the root of one unit's intermediate outputs.
func (r *Run) UnitDir(unit string) string { return filepath.Join(r.OutputDir, unit) }

// DeconcatDir holds a unit's deconcatenated reads.
func (r *Run) DeconcatDir(unit string) string {
	return filepath.Join(r.UnitDir(unit), "deconcat")
}

// DeconcatBAM is the deconcatenation output for a unit.
func (r *Run) DeconcatBAM(unit string) string {
	return filepath.Join(r.DeconcatDir(unit), unit+".segmented.bam")
}

// DemuxDir holds a unit's demultiplexed per-barcode files.
func (r *Run) DemuxDir(unit string) string { return filepath.Join(r.UnitDir(unit), "demux") }

// DemuxPrefix is the output prefix handed to the demultiplexer; it emits
// <prefix>.<barcode-pair>.bam files plus <prefix>.lima.counts.
func (r *Run) DemuxPrefix(unit string) string {
	return filepath.Join(r.DemuxDir(unit), "demuxed")
}

// DemuxCounts is the per-barcode counts file the QC renderer consumes.
func (r *Run) DemuxCounts(unit string) string {
	return r.DemuxPrefix(unit) + ".lima.counts"
}

// QCDir holds a unit's QC report artifacts.
func (r *Run) QCDir(unit string) string { return filepath.Join(r.UnitDir(unit), "qc") }

// FastqDir holds a unit's converted per-sample FASTQ files.
func (r *Run) FastqDir(unit string) string { return filepath.Join(r.UnitDir(unit), "fastq") }

// LogDir holds per-unit external tool logs.
func (r *Run) LogDir(unit string) string { return filepath.Join(r.UnitDir(unit), "logs") }

// DeliveryDir is the merged output handed to the requester.
func (r *Run) DeliveryDir() string { return filepath.Join(r.OutputDir, "delivery") }

// DeliveryFastqDir holds the merged per-sample FASTQ files.
func (r *Run) DeliveryFastqDir() string { return filepath.Join(r.DeliveryDir(), "fastq") }

// DeliveryQCDir holds unit-prefixed QC artifacts.
func (r *Run) DeliveryQCDir() string { return filepath.Join(r.DeliveryDir(), "qc") }

// DeliverySheetsDir holds unit-prefixed sample sheet copies.
func (r *Run) DeliverySheetsDir() string { return filepath.Join(r.DeliveryDir(), "samplesheets") }

// ArchivePath is the compressed delivery artifact.
func (r *Run) ArchivePath() string { return filepath.Join(r.OutputDir, r.Name+".tar.gz") }

// ChecksumPath is the archive's SHA-256 checksum file.
func (r *Run) ChecksumPath() string { return r.ArchivePath() + ".sha256" }

// RunLogPath is the per-run log every stage outcome is appended to.
func (r *Run) RunLogPath() string { return filepath.Join(r.OutputDir, "run.log") }

// LockPath is the flock target enforcing exclusive ownership of the output
// tree.
func (r *Run) LockPath() string { return filepath.Join(r.OutputDir, ".hifidel.lock") }

// JournalPath is the SQLite stage-event journal for this output tree.
func (r *Run) JournalPath() string { return filepath.Join(r.OutputDir, "journal.db") }
