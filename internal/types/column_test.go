package types

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ColumnTestSuite struct {
	suite.Suite
}

func TestColumnSuite(t *testing.T) {
	suite.Run(t, new(ColumnTestSuite))
}

func (suite *ColumnTestSuite) TestGroupColumn() {
	suite.Equal("MACD:signal", GroupColumn("MACD", "signal"))
}

func (suite *ColumnTestSuite) TestSplitGroupColumn() {
	tests := []struct {
		name           string
		column         string
		expectedGroup  string
		expectedOutput string
		expectedOK     bool
	}{
		{name: "namespaced", column: "MACD:signal", expectedGroup: "MACD", expectedOutput: "signal", expectedOK: true},
		{name: "bare", column: "sma20", expectedOK: false},
		{name: "empty group", column: ":signal", expectedOK: false},
		{name: "empty output", column: "MACD:", expectedOK: false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			group, output, ok := SplitGroupColumn(tc.column)
			suite.Equal(tc.expectedOK, ok)

			if tc.expectedOK {
				suite.Equal(tc.expectedGroup, group)
				suite.Equal(tc.expectedOutput, output)
			}
		})
	}
}

func (suite *ColumnTestSuite) TestSplitExternalColumn() {
	tests := []struct {
		name            string
		column          string
		expectedDataset string
		expectedColumn  string
		expectedOK      bool
	}{
		{name: "bare external", column: "index@close", expectedDataset: "index", expectedColumn: "close", expectedOK: true},
		{name: "namespaced external", column: "index@MACD:signal", expectedDataset: "index", expectedColumn: "MACD:signal", expectedOK: true},
		{name: "plain column", column: "close", expectedOK: false},
		{name: "missing dataset", column: "@close", expectedOK: false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			dataset, column, ok := SplitExternalColumn(tc.column)
			suite.Equal(tc.expectedOK, ok)

			if tc.expectedOK {
				suite.Equal(tc.expectedDataset, dataset)
				suite.Equal(tc.expectedColumn, column)
			}
		})
	}
}

func (suite *ColumnTestSuite) TestIsExternalColumn() {
	suite.True(IsExternalColumn("index@close"))
	suite.False(IsExternalColumn("close"))
}

func (suite *ColumnTestSuite) TestNumericValue() {
	f := 1.5
	suite.Equal(&f, NumericValue(1.5))

	i := 42.0
	suite.Equal(&i, NumericValue(42))

	s := 3.25
	suite.Equal(&s, NumericValue("3.25"))

	b := 1.0
	suite.Equal(&b, NumericValue(true))

	suite.Nil(NumericValue(nil))
	suite.Nil(NumericValue("2024-01-02"))
	suite.Nil(NumericValue([]string{"not", "numeric"}))
}
