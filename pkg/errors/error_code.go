package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidStrategy      ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidOperand       ErrorCode = 104

	// Data/Resource errors (200-299)
	ErrCodeNoData            ErrorCode = 200
	ErrCodeStorageFailed     ErrorCode = 201
	ErrCodeQueryFailed       ErrorCode = 202
	ErrCodeInsufficientBars  ErrorCode = 203
	ErrCodeUniverseAllFailed ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound    ErrorCode = 300
	ErrCodeIndicatorCalculation ErrorCode = 301

	// Rule errors (400-499)
	ErrCodeRuleParse    ErrorCode = 400
	ErrCodeRuleArity    ErrorCode = 401
	ErrCodeUnknownField ErrorCode = 402

	// Execution errors (500-599)
	ErrCodeOrderRejected    ErrorCode = 500
	ErrCodePositionNotFound ErrorCode = 501
	ErrCodeShortingDisabled ErrorCode = 502

	// Backtest errors (600-699)
	ErrCodeBacktestNoStrategy ErrorCode = 600
	ErrCodeBacktestNoBars     ErrorCode = 601
	ErrCodeBacktestRunFailed  ErrorCode = 602

	// Config errors (700-799)
	ErrCodeConfigMissingKey   ErrorCode = 700
	ErrCodeConfigInvalidValue ErrorCode = 701
	ErrCodeConfigLoadFailed   ErrorCode = 702
)
