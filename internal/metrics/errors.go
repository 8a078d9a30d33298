package metrics

import "codeberg.org/mutker/daikinctl/internal/errors"

const (
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("metrics_invalid_db_path")

	ErrSchemaInitFailed       = errors.ErrorCode("metrics_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("metrics_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("metrics_schema_migration_failed")
	ErrTransactionFailed      = errors.ErrorCode("metrics_transaction_failed")

	ErrStorageInit  = errors.ErrInitMetrics
	ErrStorageClose = errors.ErrCloseMetrics
	ErrQueryFailed  = errors.ErrorCode("metrics_query_failed")

	ErrDatabaseNotFound = errors.ErrorCode("metrics_database_not_found")
	ErrSchemaMismatch   = errors.ErrorCode("metrics_schema_mismatch")

	ErrCollection      = errors.ErrCollectMetrics
	ErrInvalidSnapshot = errors.ErrorCode("metrics_invalid_snapshot")
	ErrClosed          = errors.ErrorCode("metrics_closed")

	ErrOperationTimeout = errors.ErrTimeout
)
