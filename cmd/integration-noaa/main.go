package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"os"
	"sort"

	"github.com/diwise/integration-noaa/internal/application"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
)

var (
	fips       int
	stationID  string
	datasetID  string
	dataTypeID string
	info       bool
)

func main() {
	flag.IntVar(&fips, "fips", 0, "state FIPS code to list airport stations for")
	flag.StringVar(&stationID, "station", "", "id of the station to retrieve data from")
	flag.StringVar(&datasetID, "dataset", "GHCND", "id of the dataset to retrieve observations from")
	flag.StringVar(&dataTypeID, "datatype", "", "id of the data type to retrieve, e.g. TMAX")
	flag.BoolVar(&info, "info", false, "print station metadata instead of observations")
	flag.Parse()

	serviceName := "integration-noaa"
	serviceVersion := buildinfo.SourceVersion()
	ctx, log, cleanup := o11y.Init(context.Background(), serviceName, serviceVersion)
	defer cleanup()

	token := env.GetVariableOrDie(log, "CDO_TOKEN", "api token for climate data online")
	service := env.GetVariableOrDefault(log, "CDO_URL", application.DefaultBaseURL)

	app := application.New(service)

	var err error

	switch {
	case fips > 0:
		err = listAirports(ctx, app, token)
	case stationID != "" && info:
		err = printStationInfo(ctx, app, token)
	case stationID != "" && dataTypeID != "":
		err = printObservations(ctx, app, token)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Msg("request to climate data online failed")
	}
}

func listAirports(ctx context.Context, app application.Application, token string) error {
	airports, err := app.FindAirportStations(ctx, token, application.FIPS(fips))
	if err != nil {
		return err
	}

	names := make([]string, 0, len(airports))
	for name := range airports {
		names = append(names, name)
	}
	sort.Strings(names)

	w := csv.NewWriter(os.Stdout)
	w.Write([]string{"name", "id"})
	for _, name := range names {
		w.Write([]string{name, string(airports[name])})
	}
	w.Flush()

	return w.Error()
}

func printStationInfo(ctx context.Context, app application.Application, token string) error {
	si, err := app.GetStationInfo(ctx, token, application.StationID(stationID))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(si)
}

func printObservations(ctx context.Context, app application.Application, token string) error {
	table, err := app.GetObservations(
		ctx, token,
		application.DatasetID(datasetID),
		application.DataTypeID(dataTypeID),
		application.StationID(stationID),
	)
	if err != nil {
		return err
	}

	return table.WriteCSV(os.Stdout)
}
