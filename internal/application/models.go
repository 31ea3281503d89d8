package application

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type StationID string
type DatasetID string
type DataTypeID string

// FIPS is a numeric state code, sent as FIPS:<nn>.
// County codes are not supported, an int loses the leading zero of a five digit county FIPS.
type FIPS int

func (f FIPS) LocationID() string {
	return fmt.Sprintf("FIPS:%02d", int(f))
}

// StationInfo is the station metadata exactly as returned by the api.
type StationInfo map[string]any

func (si StationInfo) ID() StationID {
	id, _ := si["id"].(string)
	return StationID(id)
}

func (si StationInfo) Name() string {
	name, _ := si["name"].(string)
	return name
}

type resultSet struct {
	Offset int `json:"offset"`
	Count  int `json:"count"`
	Limit  int `json:"limit"`
}

// truncated reports whether results that follow the returned page were left out.
// Offset is one based.
func (rs resultSet) truncated(returned int) bool {
	first := rs.Offset
	if first < 1 {
		first = 1
	}
	return rs.Count > first-1+returned
}

type envelope struct {
	Metadata struct {
		ResultSet resultSet `json:"resultset"`
	} `json:"metadata"`
	Results json.RawMessage `json:"results"`
}

func (e envelope) hasResults() bool {
	return len(e.Results) > 0 && !bytes.Equal(e.Results, []byte("null"))
}

// station holds the fields the airport search filters on, the rest of a result is ignored.
type station struct {
	ID   StationID `json:"id"`
	Name string    `json:"name"`
}

// observation holds the fields of a result that are checked, all others pass through as they are.
type observation struct {
	DataType DataTypeID
}

// record is a json object that remembers the order of its keys.
type record struct {
	keys   []string
	values map[string]any
}

func (r record) observation() observation {
	dt, _ := r.values["datatype"].(string)
	return observation{DataType: DataTypeID(dt)}
}

func (r *record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected a json object but got: %v", tok)
	}

	r.keys = nil
	r.values = map[string]any{}

	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)

		var v any
		if err = dec.Decode(&v); err != nil {
			return err
		}

		if _, seen := r.values[key]; !seen {
			r.keys = append(r.keys, key)
		}
		r.values[key] = v
	}

	return nil
}
