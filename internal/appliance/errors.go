package appliance

import "codeberg.org/mutker/daikinctl/internal/errors"

const (
	// Counter extraction
	ErrExtraction       = errors.ErrorCode("appliance_extraction_failed")
	ErrUnknownCategory  = errors.ErrorCode("appliance_unknown_category")
	ErrOutOfOrderSample = errors.ErrorCode("appliance_out_of_order_sample")

	// Power integration
	ErrConsistencyAnomaly = errors.ErrorCode("appliance_consistency_anomaly")

	// Refresh
	ErrUpdateFailed = errors.ErrUpdateState
	ErrNoSource     = errors.ErrorCode("appliance_no_source")
)
