package types

import (
	"testing"

	"github.com/quantboard-lab/quantboard/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) TestValidate() {
	tests := []struct {
		name         string
		indicator    Indicator
		expectError  bool
		expectedCode errors.ErrorCode
	}{
		{
			name: "valid single indicator",
			indicator: Indicator{
				Name:         "SMA 20",
				SourceCode:   "def calculate(data):\n    return data['close'].rolling(20).mean()",
				OutputColumn: "sma20",
			},
			expectError: false,
		},
		{
			name: "valid group indicator",
			indicator: Indicator{
				Name:            "MACD",
				SourceCode:      "def calculate(data):\n    return {'dif': dif, 'dea': dea, 'signal': signal}",
				GroupName:       "MACD",
				ExpectedOutputs: []string{"dif", "dea", "signal"},
			},
			expectError: false,
		},
		{
			name: "missing name",
			indicator: Indicator{
				SourceCode:   "def calculate(data): ...",
				OutputColumn: "sma20",
			},
			expectError:  true,
			expectedCode: errors.ErrCodeInvalidIndicator,
		},
		{
			name: "missing source code",
			indicator: Indicator{
				Name:         "SMA 20",
				OutputColumn: "sma20",
			},
			expectError:  true,
			expectedCode: errors.ErrCodeInvalidIndicator,
		},
		{
			name: "no output mode",
			indicator: Indicator{
				Name:       "SMA 20",
				SourceCode: "def calculate(data): ...",
			},
			expectError:  true,
			expectedCode: errors.ErrCodeMissingOutputColumn,
		},
		{
			name: "both output modes",
			indicator: Indicator{
				Name:            "SMA 20",
				SourceCode:      "def calculate(data): ...",
				OutputColumn:    "sma20",
				GroupName:       "SMA",
				ExpectedOutputs: []string{"fast"},
			},
			expectError:  true,
			expectedCode: errors.ErrCodeConflictingOutputMode,
		},
		{
			name: "expected outputs without group name",
			indicator: Indicator{
				Name:            "MACD",
				SourceCode:      "def calculate(data): ...",
				ExpectedOutputs: []string{"dif"},
			},
			expectError:  true,
			expectedCode: errors.ErrCodeMissingGroupName,
		},
		{
			name: "group without expected outputs",
			indicator: Indicator{
				Name:       "MACD",
				SourceCode: "def calculate(data): ...",
				GroupName:  "MACD",
			},
			expectError:  true,
			expectedCode: errors.ErrCodeEmptyExpectedOutputs,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := tc.indicator.Validate()
			if tc.expectError {
				suite.Error(err)
				suite.Equal(tc.expectedCode, errors.GetCode(err))
			} else {
				suite.NoError(err)
			}
		})
	}
}

func (suite *IndicatorTestSuite) TestMode() {
	single := Indicator{Name: "SMA", SourceCode: "x", OutputColumn: "sma20"}
	suite.Equal(OutputModeSingle, single.Mode())
	suite.False(single.IsGroup())

	group := Indicator{Name: "MACD", SourceCode: "x", GroupName: "MACD", ExpectedOutputs: []string{"dif"}}
	suite.Equal(OutputModeGroup, group.Mode())
	suite.True(group.IsGroup())
}

func (suite *IndicatorTestSuite) TestOutputColumns() {
	single := Indicator{Name: "SMA", SourceCode: "x", OutputColumn: "sma20"}
	suite.Equal([]string{"sma20"}, single.OutputColumns())

	group := Indicator{
		Name:            "MACD",
		SourceCode:      "x",
		GroupName:       "MACD",
		ExpectedOutputs: []string{"dif", "dea", "signal"},
	}
	suite.Equal([]string{"MACD:dif", "MACD:dea", "MACD:signal"}, group.OutputColumns())
}
