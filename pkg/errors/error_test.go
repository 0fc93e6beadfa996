package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestConstructors() {
	cause := errors.New("connection reset")

	tests := []struct {
		name    string
		err     *Error
		code    ErrorCode
		message string
		cause   error
		text    string
	}{
		{
			name:    "new",
			err:     New(ErrCodeInvalidParameter, "quantity must be positive"),
			code:    ErrCodeInvalidParameter,
			message: "quantity must be positive",
			text:    "[100] quantity must be positive",
		},
		{
			name:    "newf",
			err:     Newf(ErrCodeDataNotFound, "no candles for %s", "NIFTY"),
			code:    ErrCodeDataNotFound,
			message: "no candles for NIFTY",
			text:    "[200] no candles for NIFTY",
		},
		{
			name:    "wrap",
			err:     Wrap(ErrCodeQueryFailed, "load option chain", cause),
			code:    ErrCodeQueryFailed,
			message: "load option chain",
			cause:   cause,
			text:    "[202] load option chain: connection reset",
		},
		{
			name:    "wrapf",
			err:     Wrapf(ErrCodeWriteFailed, cause, "persist trade %d", 7),
			code:    ErrCodeWriteFailed,
			message: "persist trade 7",
			cause:   cause,
			text:    "[206] persist trade 7: connection reset",
		},
		{
			name:    "wrap nil cause",
			err:     Wrap(ErrCodeUnknown, "stop", nil),
			code:    ErrCodeUnknown,
			message: "stop",
			text:    "[1] stop",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.Equal(tt.code, tt.err.Code)
			suite.Equal(tt.message, tt.err.Message)
			suite.Equal(tt.cause, tt.err.Unwrap())
			suite.Equal(tt.text, tt.err.Error())
		})
	}
}

func (suite *ErrorTestSuite) TestOutermostCodeWins() {
	inner := New(ErrCodeDataNotFound, "no bar for NSE_FO|45001")
	err := Wrap(ErrCodeExpressionEval, "evaluate sl", inner)

	suite.Equal(ErrCodeExpressionEval, GetCode(err))
	suite.True(HasCode(err, ErrCodeExpressionEval))
	suite.False(HasCode(err, ErrCodeDataNotFound))

	// a plain wrapper keeps the coded error reachable
	suite.Equal(ErrCodeDataNotFound, GetCode(fmt.Errorf("tick: %w", inner)))
}

func (suite *ErrorTestSuite) TestUncodedErrors() {
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
	suite.Equal(ErrCodeUnknown, GetCode(nil))
	suite.False(HasCode(nil, ErrCodeUnknown))
}

func (suite *ErrorTestSuite) TestCodeSentinel() {
	err := Wrap(ErrCodeCallbackFailed, "trade opened callback failed", errors.New("sink down"))

	suite.ErrorIs(err, New(ErrCodeCallbackFailed, ""))
	suite.NotErrorIs(err, New(ErrCodeWriteFailed, ""))

	var coded *Error
	suite.Require().ErrorAs(err, &coded)
	suite.Equal("trade opened callback failed", coded.Message)
}

func (suite *ErrorTestSuite) TestCodeRanges() {
	suite.Equal(ErrorCode(1), ErrCodeUnknown)
	suite.Equal(ErrorCode(100), ErrCodeInvalidParameter)
	suite.Equal(ErrorCode(200), ErrCodeDataNotFound)
	suite.Equal(ErrorCode(300), ErrCodeExpressionSyntax)
	suite.Equal(ErrorCode(400), ErrCodePatternLoadFailed)
	suite.Equal(ErrorCode(500), ErrCodeTradeFailed)
	suite.Equal(ErrorCode(600), ErrCodeEngineInitFailed)
	suite.Equal(ErrorCode(700), ErrCodeFeedConnectFailed)
	suite.Equal(ErrorCode(800), ErrCodeCallbackFailed)
}

func (suite *ErrorTestSuite) TestInsufficientData() {
	err := NewInsufficientDataError("BANKNIFTY", 14, 10)
	suite.Equal("insufficient history for BANKNIFTY: required 14 bars, got 10", err.Error())

	anonymous := NewInsufficientDataError("", 20, 5)
	suite.Equal("insufficient history: required 20 bars, got 5", anonymous.Error())

	suite.True(IsInsufficientDataError(fmt.Errorf("atr: %w", err)))
	suite.False(IsInsufficientDataError(New(ErrCodeInvalidPeriod, "period must be positive")))
	suite.False(IsInsufficientDataError(nil))
}
