package executor

import (
	"context"
	"testing"

	"github.com/quantboard-lab/quantboard/internal/logger"
	"github.com/quantboard-lab/quantboard/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ProcessExecutorTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func TestProcessExecutorSuite(t *testing.T) {
	suite.Run(t, new(ProcessExecutorTestSuite))
}

func (suite *ProcessExecutorTestSuite) SetupSuite() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)
	suite.logger = log
}

// shExecutor builds a ProcessExecutor that drains stdin and prints a canned
// response, standing in for the real interpreter bridge.
func (suite *ProcessExecutorTestSuite) shExecutor(response string) *ProcessExecutor {
	return NewProcessExecutor("sh", []string{"-c", "cat > /dev/null; printf '%s' '" + response + "'"}, suite.logger)
}

func (suite *ProcessExecutorTestSuite) TestExecuteSuccess() {
	exe := suite.shExecutor(`{"success": true, "values": [1.0, 2.0]}`)

	result, err := exe.Execute(context.Background(), Request{Code: "def calculate(data): ..."})
	suite.Require().NoError(err)
	suite.True(result.Success)
	suite.Len(result.Values, 2)
}

func (suite *ProcessExecutorTestSuite) TestExecuteStructuredFailure() {
	exe := suite.shExecutor(`{"success": false, "error": "boom", "details": {"type": "ValueError"}}`)

	result, err := exe.Execute(context.Background(), Request{Code: "def calculate(data): ..."})
	suite.Require().NoError(err)
	suite.False(result.Success)
	suite.Equal("boom", result.Error)
}

func (suite *ProcessExecutorTestSuite) TestExecuteCommandMissing() {
	exe := NewProcessExecutor("definitely-not-a-command-xyz", nil, suite.logger)

	_, err := exe.Execute(context.Background(), Request{Code: "x"})
	suite.Error(err)
	suite.Equal(errors.ErrCodeExecutorUnavailable, errors.GetCode(err))
}

func (suite *ProcessExecutorTestSuite) TestExecuteGarbageOutput() {
	exe := suite.shExecutor("not json at all")

	_, err := exe.Execute(context.Background(), Request{Code: "x"})
	suite.Error(err)
	suite.Equal(errors.ErrCodeMalformedResult, errors.GetCode(err))
}
