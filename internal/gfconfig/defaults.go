package gfconfig

// Defaults for the pipeline and reporting knobs.
const (
	DefaultBranch       = "refs/heads/master"
	DefaultWithBlobs    = true
	DefaultNumThreads   = 0
	DefaultBufferDepth  = 4
	DefaultRulesPath    = ""
	DefaultReportFormat = "table"
	DefaultReportHTML   = ""
	DefaultExporter     = "none"
	DefaultSampleRatio  = 0.0
	DefaultDebugTrace   = false
	DefaultOTLPInsecure = false
)
