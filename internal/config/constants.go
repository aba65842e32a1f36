package config

import (
	"time"

	"settlecli/pkg/contracts"
)

// Application constants
const (
	// Application Info
	AppName    = "settlecli"
	AppVersion = contracts.Version

	// Rate Limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	// Uploads
	DefaultMaxUploadBytes = 20 << 20 // 20MB
	DefaultMaxWorkbooks   = 64
	DefaultWorkbookTTL    = 2 * time.Hour

	// File Paths (relative to the working directory)
	DefaultOutputDir = "out"
	DefaultLogFile   = "logs/settle.log"

	// Trace exporters
	TraceExporterStdout = "stdout"
	TraceExporterNone   = "none"
)
