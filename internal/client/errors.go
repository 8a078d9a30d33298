package client

import "codeberg.org/mutker/daikinctl/internal/errors"

const (
	ErrInvalidConfig   = errors.ErrorCode("client_invalid_config")
	ErrRequestFailed   = errors.ErrorCode("client_request_failed")
	ErrInvalidResponse = errors.ErrorCode("client_invalid_response")
	ErrDeviceNotFound  = errors.ErrorCode("client_device_not_found")
)
