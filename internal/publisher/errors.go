package publisher

import "codeberg.org/mutker/daikinctl/internal/errors"

const (
	ErrInvalidConfig = errors.ErrorCode("publisher_invalid_config")
	ErrConnect       = errors.ErrInitPublisher
	ErrPublish       = errors.ErrPublish
	ErrEncode        = errors.ErrorCode("publisher_encode_failed")
)
