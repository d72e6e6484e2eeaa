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

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInvalidParameter, "invalid parameter: %s", "test")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter: test", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNoData, "no data", cause)
	suite.NotNil(err)
	suite.Equal(ErrCodeNoData, err.Code)
	suite.Equal("no data", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeFetchFailed, cause, "failed to fetch history for symbol: %s", "AAPL")
	suite.NotNil(err)
	suite.Equal(ErrCodeFetchFailed, err.Code)
	suite.Equal("failed to fetch history for symbol: AAPL", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNoData, "no data", cause)
	suite.Equal("[200] no data: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNoData, "no data", cause)
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestUnwrapNil() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal(ErrCodeInvalidParameter, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	cause := New(ErrCodeNoData, "no data")
	wrapped := fmt.Errorf("outer: %w", cause)
	suite.Equal(ErrCodeNoData, GetCode(wrapped))
}

func (suite *ErrorTestSuite) TestGetCodeUnknown() {
	err := errors.New("plain error")
	suite.Equal(ErrCodeUnknown, GetCode(err))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeMalformedTable, "malformed table")
	suite.True(HasCode(err, ErrCodeMalformedTable))
	suite.False(HasCode(err, ErrCodeNoData))
}

func (suite *ErrorTestSuite) TestNoDataError() {
	err := NewNoDataError("AAPL", "market data could not be retrieved")
	suite.Equal("market data could not be retrieved", err.Error())
	suite.Equal("AAPL", err.Symbol)
	suite.True(IsNoDataError(err))
}

func (suite *ErrorTestSuite) TestNoDataErrorf() {
	err := NewNoDataErrorf("TSLA", "no rows survived normalization for %s", "TSLA")
	suite.Equal("no rows survived normalization for TSLA", err.Message)
	suite.True(IsNoDataError(err))
}

func (suite *ErrorTestSuite) TestIsNoDataErrorWrapped() {
	cause := NewNoDataError("MSFT", "empty result")
	wrapped := fmt.Errorf("pipeline failed: %w", cause)
	suite.True(IsNoDataError(wrapped))
	suite.False(IsNoDataError(errors.New("other")))
}
