package application

import (
	"encoding/json"
	"testing"

	"github.com/matryer/is"
)

func TestRecordKeepsKeyOrder(t *testing.T) {
	is := is.New(t)

	r := record{}
	err := json.Unmarshal([]byte(`{"value": 3, "date": "2016-01-01", "attributes": {"a": [1, 2]}, "station": null}`), &r)
	is.NoErr(err)

	is.Equal(r.keys, []string{"value", "date", "attributes", "station"})
	is.Equal(r.values["value"], float64(3))
	is.Equal(r.values["station"], nil)
}

func TestRecordRejectsNonObject(t *testing.T) {
	is := is.New(t)

	r := record{}
	err := json.Unmarshal([]byte(`[1, 2]`), &r)
	is.True(err != nil)
}

func TestLocationID(t *testing.T) {
	is := is.New(t)

	is.Equal(FIPS(6).LocationID(), "FIPS:06")
	is.Equal(FIPS(37).LocationID(), "FIPS:37")
}

func TestResultSetTruncated(t *testing.T) {
	is := is.New(t)

	is.True(resultSet{Offset: 1, Count: 1366, Limit: 1000}.truncated(1000))
	is.True(!resultSet{Offset: 1, Count: 366, Limit: 1000}.truncated(366))
	is.True(!resultSet{Offset: 1001, Count: 1366, Limit: 1000}.truncated(366))
	is.True(!resultSet{}.truncated(2))
}

func TestRecordObservationReadsDataType(t *testing.T) {
	is := is.New(t)

	r := record{}
	is.NoErr(json.Unmarshal([]byte(`{"datatype": "TMIN", "attributes": {"flag": "W"}, "station": 7}`), &r))
	is.Equal(r.observation().DataType, DataTypeID("TMIN"))

	is.NoErr(json.Unmarshal([]byte(`{"datatype": 5}`), &r))
	is.Equal(r.observation().DataType, DataTypeID(""))
}
