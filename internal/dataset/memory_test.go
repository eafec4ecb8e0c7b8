package dataset

import (
	"context"
	"testing"

	"github.com/quantboard-lab/quantboard/internal/types"
	"github.com/quantboard-lab/quantboard/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type MemoryStoreTestSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreTestSuite))
}

func (suite *MemoryStoreTestSuite) SetupTest() {
	suite.store = NewMemoryStore()
	suite.ctx = context.Background()

	suite.store.Load("prices", []string{"date", "close"}, []types.Row{
		{"date": "2024-01-01", "close": 10.0},
		{"date": "2024-01-02", "close": 11.0},
		{"date": "2024-01-03", "close": 12.0},
	})
}

func (suite *MemoryStoreTestSuite) TestReadAll() {
	rows, columns, err := suite.store.ReadAll(suite.ctx, "prices")
	suite.Require().NoError(err)
	suite.Equal([]string{"date", "close"}, columns)
	suite.Len(rows, 3)
	suite.Equal(11.0, rows[1]["close"])
}

func (suite *MemoryStoreTestSuite) TestReadAllMissingDataset() {
	_, _, err := suite.store.ReadAll(suite.ctx, "missing")
	suite.Error(err)
	suite.Equal(errors.ErrCodeDatasetNotFound, errors.GetCode(err))
}

func (suite *MemoryStoreTestSuite) TestWriteColumn() {
	v1, v2 := 1.5, 2.5
	err := suite.store.WriteColumn(suite.ctx, "prices", "sma20", []*float64{&v1, nil, &v2})
	suite.Require().NoError(err)

	rows, columns, err := suite.store.ReadAll(suite.ctx, "prices")
	suite.Require().NoError(err)
	suite.Equal([]string{"date", "close", "sma20"}, columns)
	suite.Equal(1.5, rows[0]["sma20"])
	suite.Nil(rows[1]["sma20"])
	suite.Equal(2.5, rows[2]["sma20"])
}

func (suite *MemoryStoreTestSuite) TestWriteColumnOverwriteKeepsOthers() {
	v := 1.0
	suite.Require().NoError(suite.store.WriteColumn(suite.ctx, "prices", "a", []*float64{&v, &v, &v}))

	w := 2.0
	suite.Require().NoError(suite.store.WriteColumn(suite.ctx, "prices", "a", []*float64{&w, &w, &w}))

	rows, columns, err := suite.store.ReadAll(suite.ctx, "prices")
	suite.Require().NoError(err)
	// column registered once, values replaced, unrelated columns untouched
	suite.Equal([]string{"date", "close", "a"}, columns)
	suite.Equal(2.0, rows[0]["a"])
	suite.Equal(10.0, rows[0]["close"])
}

func (suite *MemoryStoreTestSuite) TestWriteColumnLengthMismatch() {
	v := 1.0
	err := suite.store.WriteColumn(suite.ctx, "prices", "bad", []*float64{&v})
	suite.Error(err)
	suite.Equal(errors.ErrCodeColumnLengthMismatch, errors.GetCode(err))
}

func (suite *MemoryStoreTestSuite) TestWriteGroupColumns() {
	v1, v2, v3 := 1.0, 2.0, 3.0
	err := suite.store.WriteGroupColumns(suite.ctx, "prices", "MACD", map[string][]*float64{
		"dif":    {&v1, &v2, &v3},
		"signal": {&v3, &v2, &v1},
	})
	suite.Require().NoError(err)

	rows, columns, err := suite.store.ReadAll(suite.ctx, "prices")
	suite.Require().NoError(err)
	suite.Contains(columns, "MACD:dif")
	suite.Contains(columns, "MACD:signal")
	suite.Equal(1.0, rows[0]["MACD:dif"])
	suite.Equal(3.0, rows[0]["MACD:signal"])
}

func (suite *MemoryStoreTestSuite) TestCount() {
	count, err := suite.store.Count(suite.ctx, "prices")
	suite.Require().NoError(err)
	suite.Equal(3, count)
}

func (suite *MemoryStoreTestSuite) TestColumns() {
	columns, err := suite.store.Columns(suite.ctx, "prices")
	suite.Require().NoError(err)
	suite.Equal([]string{"date", "close"}, columns)
}

func (suite *MemoryStoreTestSuite) TestReadAllReturnsCopies() {
	rows, _, err := suite.store.ReadAll(suite.ctx, "prices")
	suite.Require().NoError(err)

	rows[0]["close"] = 999.0

	fresh, _, err := suite.store.ReadAll(suite.ctx, "prices")
	suite.Require().NoError(err)
	suite.Equal(10.0, fresh[0]["close"])
}
