package usecase

import "time"

const (
	// DefaultAmountPrecision is the number of fractional digits amounts are
	// kept to and rendered with.
	DefaultAmountPrecision int32 = 4

	// MaxAmountPrecision bounds the configurable precision.
	MaxAmountPrecision int32 = 18

	// DefaultExportTimeout bounds a single snapshot export to all sinks.
	DefaultExportTimeout = 30 * time.Second
)
