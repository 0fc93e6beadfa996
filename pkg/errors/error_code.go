package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidDefinition    ErrorCode = 102
	ErrCodeInvalidTakeProfit    ErrorCode = 103
	ErrCodeInvalidStopLoss      ErrorCode = 104
	ErrCodeInvalidTrade         ErrorCode = 105
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidType          ErrorCode = 107
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeHistoricalDataFailed  ErrorCode = 203
	ErrCodeOptionChainNotFound   ErrorCode = 204
	ErrCodeSentimentNotFound     ErrorCode = 205
	ErrCodeWriteFailed           ErrorCode = 206

	// Expression errors (300-399)
	ErrCodeExpressionSyntax    ErrorCode = 300
	ErrCodeExpressionEval      ErrorCode = 301
	ErrCodeUnknownIdentifier   ErrorCode = 302
	ErrCodeUnknownFunction     ErrorCode = 303
	ErrCodeExpressionTypeError ErrorCode = 304

	// Pattern errors (400-499)
	ErrCodePatternLoadFailed ErrorCode = 400
	ErrCodePatternNotFound   ErrorCode = 401
	ErrCodeCorruptState      ErrorCode = 402
	ErrCodeStateSaveFailed   ErrorCode = 403

	// Execution errors (500-599)
	ErrCodeTradeFailed         ErrorCode = 500
	ErrCodePositionNotFound    ErrorCode = 501
	ErrCodeMarketDataMissing   ErrorCode = 502
	ErrCodeOptionResolution    ErrorCode = 503
	ErrCodeOptionPriceMissing  ErrorCode = 504
	ErrCodeEntryVetoed         ErrorCode = 505
	ErrCodeDuplicatePosition   ErrorCode = 506
	ErrCodeInstrumentsNotReady ErrorCode = 507

	// Engine errors (600-699)
	ErrCodeEngineInitFailed  ErrorCode = 600
	ErrCodeEngineConfigError ErrorCode = 601
	ErrCodeNoPatterns        ErrorCode = 602
	ErrCodeNoSymbols         ErrorCode = 603
	ErrCodeNoResultsDir      ErrorCode = 604
	ErrCodeRunFailed         ErrorCode = 605

	// Feed errors (700-799)
	ErrCodeFeedConnectFailed ErrorCode = 700
	ErrCodeFeedReadFailed    ErrorCode = 701
	ErrCodeFeedParseFailed   ErrorCode = 702

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)
