package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 102
	ErrCodeInvalidWindow        ErrorCode = 103
	ErrCodeMissingParameter     ErrorCode = 104
	ErrCodeInvalidType          ErrorCode = 105
	ErrCodeInvalidVersion       ErrorCode = 106
	ErrCodeInvalidSymbol        ErrorCode = 107

	// Data/Resource errors (200-299)
	ErrCodeNoData           ErrorCode = 200
	ErrCodeMalformedTable   ErrorCode = 201
	ErrCodeQueryFailed      ErrorCode = 202
	ErrCodeCatalogNotFound  ErrorCode = 203
	ErrCodeArtifactWrite    ErrorCode = 204
	ErrCodeInsufficientData ErrorCode = 205

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 300
	ErrCodeIndicatorNotFound    ErrorCode = 301

	// Decision errors (400-499)
	ErrCodeUnknownStrategy  ErrorCode = 400
	ErrCodeMissingIndicator ErrorCode = 401

	// Market data errors (500-599)
	ErrCodeFetchFailed     ErrorCode = 500
	ErrCodeFetchTimeout    ErrorCode = 501
	ErrCodeInvalidProvider ErrorCode = 502
	ErrCodeInvalidInterval ErrorCode = 503
	ErrCodeWriteFailed     ErrorCode = 504

	// Predictor errors (600-699)
	ErrCodePredictorUnavailable ErrorCode = 600
	ErrCodePredictorResponse    ErrorCode = 601
)
