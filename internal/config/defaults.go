package config

const (
	defaultSkeraBinary     = "skera"
	defaultLimaBinary      = "lima"
	defaultBam2FastqBinary = "bam2fastq"
	defaultReportBinary    = "barcode-report"
	defaultThreads         = 8
	defaultMaxParallelJobs = 4
	defaultJobThreads      = 2
	defaultMinReportCount  = 100
	defaultLogLevel        = "info"
	defaultLogFormat       = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Tools: Tools{
			Skera:           defaultSkeraBinary,
			Lima:            defaultLimaBinary,
			Bam2Fastq:       defaultBam2FastqBinary,
			Report:          defaultReportBinary,
			Threads:         defaultThreads,
			MaxParallelJobs: defaultMaxParallelJobs,
			JobThreads:      defaultJobThreads,
			MinReportCount:  defaultMinReportCount,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
