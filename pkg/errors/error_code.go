package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Definition errors (100-199): rejected at indicator creation/update time
	ErrCodeInvalidIndicator      ErrorCode = 100
	ErrCodeMissingOutputColumn   ErrorCode = 101
	ErrCodeMissingGroupName      ErrorCode = 102
	ErrCodeEmptyExpectedOutputs  ErrorCode = 103
	ErrCodeConflictingOutputMode ErrorCode = 104
	ErrCodeMissingSourceCode     ErrorCode = 105
	ErrCodeInvalidConfiguration  ErrorCode = 106
	ErrCodeInvalidParameter      ErrorCode = 107

	// Catalog errors (200-299)
	ErrCodeIndicatorNotFound      ErrorCode = 200
	ErrCodeIndicatorAlreadyExists ErrorCode = 201
	ErrCodeDuplicateIndicatorID   ErrorCode = 202
	ErrCodeCatalogStoreFailed     ErrorCode = 203

	// Dependency graph errors (300-399)
	ErrCodeDependencyCycle   ErrorCode = 300
	ErrCodeRenameConflict    ErrorCode = 301
	ErrCodeNotAGroupOutput   ErrorCode = 302
	ErrCodeUnknownOutput     ErrorCode = 303
	ErrCodeCascadeIncomplete ErrorCode = 304

	// Execution errors (400-499): reported per indicator, never fatal to a batch
	ErrCodeExecutionFailed      ErrorCode = 400
	ErrCodeExecutorUnavailable  ErrorCode = 401
	ErrCodeMalformedResult      ErrorCode = 402
	ErrCodeMissingGroupOutputs  ErrorCode = 403
	ErrCodeResultLengthMismatch ErrorCode = 404

	// Dataset errors (500-599)
	ErrCodeDatasetNotFound      ErrorCode = 500
	ErrCodeDatasetReadFailed    ErrorCode = 501
	ErrCodeDatasetWriteFailed   ErrorCode = 502
	ErrCodeColumnLengthMismatch ErrorCode = 503

	// Pipeline errors (600-699)
	ErrCodePipelineConfigError ErrorCode = 600
	ErrCodePipelineNoCatalog   ErrorCode = 601
	ErrCodePipelineNoStore     ErrorCode = 602
	ErrCodePipelineNoExecutor  ErrorCode = 603
)
