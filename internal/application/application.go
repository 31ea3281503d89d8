package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultBaseURL string = "https://www.ncdc.noaa.gov/cdo-web/api/v2/"

const (
	startDate   string = "2016-01-01"
	endDate     string = "2016-12-31"
	resultLimit string = "1000"

	stationDataset string = "GHCND"
	airportMarker  string = "AIRPORT"
)

var tracer = otel.Tracer("integration-noaa/application")

type Application interface {
	FindAirportStations(ctx context.Context, token string, fips FIPS) (map[string]StationID, error)
	GetStationInfo(ctx context.Context, token string, stationID StationID) (StationInfo, error)
	GetObservations(ctx context.Context, token string, datasetID DatasetID, dataTypeID DataTypeID, stationID StationID) (*ObservationTable, error)
}

type app struct {
	baseURL string
	client  http.Client
}

func New(baseURL string) Application {
	return &app{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (a *app) FindAirportStations(ctx context.Context, token string, fips FIPS) (_ map[string]StationID, err error) {
	ctx, span := tracer.Start(ctx, "find-airport-stations")
	defer func() { endSpan(span, err) }()

	span.SetAttributes(attribute.String("locationid", fips.LocationID()))
	log := logging.GetFromContext(ctx).With().Str("locationid", fips.LocationID()).Logger()

	params := url.Values{}
	params.Set("locationid", fips.LocationID())
	params.Set("datatypeid", stationDataset)
	params.Set("startdate", startDate)
	params.Set("enddate", endDate)
	params.Set("limit", resultLimit)

	results, err := a.get(ctx, log, token, "stations", params)
	if err != nil {
		return nil, err
	}

	stations := make([]station, len(results))
	for i, r := range results {
		if err = json.Unmarshal(r, &stations[i]); err != nil {
			log.Error().Err(err).Msgf("failed to unmarshal station %d", i)
			return nil, err
		}
	}

	airports := map[string]StationID{}
	for _, s := range stations {
		if strings.Contains(string(s.ID), stationDataset) && strings.Contains(s.Name, airportMarker) {
			airports[s.Name] = s.ID
		}
	}

	log.Info().Msgf("found %d airport stations among %d stations", len(airports), len(stations))
	span.SetAttributes(attribute.Int("airports", len(airports)))

	return airports, nil
}

func (a *app) GetStationInfo(ctx context.Context, token string, stationID StationID) (_ StationInfo, err error) {
	ctx, span := tracer.Start(ctx, "get-station-info")
	defer func() { endSpan(span, err) }()

	span.SetAttributes(attribute.String("stationid", string(stationID)))
	log := logging.GetFromContext(ctx).With().Str("station", string(stationID)).Logger()

	body, err := a.fetch(ctx, log, token, "stations/"+url.PathEscape(string(stationID)), nil)
	if err != nil {
		return nil, err
	}

	info := StationInfo{}
	if err = json.Unmarshal(body, &info); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal station info")
		return nil, err
	}

	return info, nil
}

func (a *app) GetObservations(ctx context.Context, token string, datasetID DatasetID, dataTypeID DataTypeID, stationID StationID) (_ *ObservationTable, err error) {
	ctx, span := tracer.Start(ctx, "get-observations")
	defer func() { endSpan(span, err) }()

	span.SetAttributes(
		attribute.String("datasetid", string(datasetID)),
		attribute.String("datatypeid", string(dataTypeID)),
		attribute.String("stationid", string(stationID)),
	)
	log := logging.GetFromContext(ctx).With().
		Str("dataset", string(datasetID)).
		Str("datatype", string(dataTypeID)).
		Str("station", string(stationID)).
		Logger()

	params := url.Values{}
	params.Set("datasetid", string(datasetID))
	params.Set("datatypeid", string(dataTypeID))
	params.Set("stationid", string(stationID))
	params.Set("startdate", startDate)
	params.Set("enddate", endDate)
	params.Set("units", "standard")
	params.Set("limit", resultLimit)

	results, err := a.get(ctx, log, token, "data", params)
	if err != nil {
		return nil, err
	}

	table, observations, err := newObservationTable(results)
	if err != nil {
		log.Error().Err(err).Msg("failed to build observation table")
		return nil, err
	}

	for i, o := range observations {
		if o.DataType != dataTypeID {
			err = fmt.Errorf("%w: result %d has datatype %q, expected %q", ErrMixedDataTypes, i, o.DataType, dataTypeID)
			log.Error().Err(err).Msg("observations are not of the requested type")
			return nil, err
		}
	}

	table.Drop("attributes", "datatype")
	table.Rename("value", string(dataTypeID))

	span.SetAttributes(attribute.Int("rows", table.Len()))

	return table, nil
}

// newObservationTable lays out the results using the first result's fields as columns.
// Every other result must have exactly the same fields.
func newObservationTable(raw []json.RawMessage) (*ObservationTable, []observation, error) {
	if len(raw) == 0 {
		return nil, nil, ErrEmptyResult
	}

	records := make([]record, len(raw))
	observations := make([]observation, len(raw))

	for i, r := range raw {
		if err := json.Unmarshal(r, &records[i]); err != nil {
			return nil, nil, err
		}
		observations[i] = records[i].observation()
	}

	columns := append([]string{}, records[0].keys...)
	table := &ObservationTable{
		Columns: columns,
		Rows:    make([][]any, 0, len(records)),
	}

	for i, rec := range records {
		if len(rec.keys) != len(columns) {
			return nil, nil, fmt.Errorf("%w: result %d has %d fields, expected %d", ErrFieldMismatch, i, len(rec.keys), len(columns))
		}

		row := make([]any, len(columns))
		for j, c := range columns {
			v, ok := rec.values[c]
			if !ok {
				return nil, nil, fmt.Errorf("%w: result %d has no field %q", ErrFieldMismatch, i, c)
			}
			row[j] = v
		}

		table.Rows = append(table.Rows, row)
	}

	return table, observations, nil
}

// get fetches a list endpoint and returns its results, one raw object per result.
func (a *app) get(ctx context.Context, log zerolog.Logger, token, path string, params url.Values) ([]json.RawMessage, error) {
	body, err := a.fetch(ctx, log, token, path, params)
	if err != nil {
		return nil, err
	}

	env := envelope{}
	if err = json.Unmarshal(body, &env); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal response body into json")
		return nil, err
	}

	if !env.hasResults() {
		log.Error().Err(ErrMissingResults).Msgf("no results from %s", path)
		return nil, ErrMissingResults
	}

	results := []json.RawMessage{}
	if err = json.Unmarshal(env.Results, &results); err != nil {
		log.Error().Err(err).Msgf("failed to unmarshal results from %s", path)
		return nil, err
	}

	rs := env.Metadata.ResultSet
	if rs.truncated(len(results)) {
		log.Warn().Msgf("result set truncated, %d of %d results returned", len(results), rs.Count)
		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("truncated", true))
	}

	return results, nil
}

func (a *app) fetch(ctx context.Context, log zerolog.Logger, token, path string, params url.Values) ([]byte, error) {
	u := fmt.Sprintf("%s/%s", a.baseURL, path)
	if len(params) > 0 {
		u = u + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to create request")
		return nil, err
	}
	req.Header.Set("token", token)

	log.Debug().Msgf("requesting %s", path)

	resp, err := a.client.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("failed to send request")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("%w: expected status code 200 but got: %d", ErrUnexpectedStatus, resp.StatusCode)
		log.Error().Err(err).Msgf("request to %s failed", path)
		return nil, err
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Msg("failed to read response body")
		return nil, err
	}

	return bodyBytes, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
