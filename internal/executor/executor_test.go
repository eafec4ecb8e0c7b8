package executor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ResultTestSuite struct {
	suite.Suite
}

func TestResultSuite(t *testing.T) {
	suite.Run(t, new(ResultTestSuite))
}

func (suite *ResultTestSuite) TestUnmarshalSingleValues() {
	payload := `{"success": true, "values": [1.5, null, 3.0]}`

	var result Result

	suite.Require().NoError(json.Unmarshal([]byte(payload), &result))
	suite.True(result.Success)
	suite.Require().Len(result.Values, 3)
	suite.Equal(1.5, *result.Values[0])
	suite.Nil(result.Values[1])
	suite.Equal(3.0, *result.Values[2])
	suite.Nil(result.GroupValues)
}

func (suite *ResultTestSuite) TestUnmarshalGroupValues() {
	payload := `{"success": true, "values": {"dif": [1.0, 2.0], "dea": [null, 0.5]}}`

	var result Result

	suite.Require().NoError(json.Unmarshal([]byte(payload), &result))
	suite.True(result.Success)
	suite.Nil(result.Values)
	suite.Require().Len(result.GroupValues, 2)
	suite.Equal(2.0, *result.GroupValues["dif"][1])
	suite.Nil(result.GroupValues["dea"][0])
}

func (suite *ResultTestSuite) TestUnmarshalError() {
	payload := `{
		"success": false,
		"error": "'sma20'",
		"details": {
			"type": "KeyError",
			"traceback": "Traceback (most recent call last): ...",
			"hints": ["Available columns: date, open, close"],
			"warnings": ["divide by zero encountered"]
		}
	}`

	var result Result

	suite.Require().NoError(json.Unmarshal([]byte(payload), &result))
	suite.False(result.Success)
	suite.Equal("'sma20'", result.Error)
	suite.Require().NotNil(result.Details)
	suite.Equal("KeyError", result.Details.Type)
	suite.Equal([]string{"Available columns: date, open, close"}, result.Details.Hints)
	suite.Equal([]string{"divide by zero encountered"}, result.Details.Warnings)
}

func (suite *ResultTestSuite) TestUnmarshalNullValues() {
	payload := `{"success": true, "values": null}`

	var result Result

	suite.Require().NoError(json.Unmarshal([]byte(payload), &result))
	suite.Nil(result.Values)
	suite.Nil(result.GroupValues)
}

func (suite *ResultTestSuite) TestUnmarshalUnexpectedValues() {
	payload := `{"success": true, "values": 42}`

	var result Result

	suite.Error(json.Unmarshal([]byte(payload), &result))
}

func (suite *ResultTestSuite) TestRequestEncoding() {
	request := Request{
		Code:    "def calculate(data): ...",
		Data:    nil,
		IsGroup: true,
		ExternalDatasets: map[string]ExternalDatasetConfig{
			"index": {GroupID: "datasource_index", DatasetName: "000001.csv"},
		},
	}

	encoded, err := json.Marshal(request)
	suite.Require().NoError(err)
	suite.Contains(string(encoded), `"isGroup":true`)
	suite.Contains(string(encoded), `"externalDatasets"`)
	suite.Contains(string(encoded), `"groupId":"datasource_index"`)
}
