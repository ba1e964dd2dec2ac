package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/datson-api/internal/services"
)

const dateLayout = "2006-01-02"

var (
	lon       float64
	lat       float64
	field     string
	startDate string
	endDate   string
	interval  string
	current   bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch weather data",
	Long: `Fetch a historical series (or with --current the latest reading) from
open-meteo. Location and dates default to LONGITUDE, LATITUDE, START_DATE and
END_DATE.

Examples:
  datsonctl fetch --field wind_speed_10m --start 2024-03-01 --end 2024-03-07
  datsonctl fetch --current --field relative_humidity_2m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataField, err := services.ParseDataField(field)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("lon") {
			lon = cfg.Longitude
		}
		if !cmd.Flags().Changed("lat") {
			lat = cfg.Latitude
		}

		client, err := services.NewWeatherClient(services.WeatherConfig{
			HistoricalURL: cfg.HistoricalDataURL,
			CurrentURL:    cfg.CurrentDataURL,
			CacheSize:     1,
			Timeout:       cfg.UpstreamTimeout,
		}, nil, nil)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if current {
			value, err := client.Current(ctx, lon, lat, dataField)
			if err != nil {
				return err
			}
			return printJSON(value)
		}

		step, err := services.ParseInterval(interval)
		if err != nil {
			return err
		}
		start, err := parseDate(startDate, cfg.StartDate)
		if err != nil {
			return err
		}
		end, err := parseDate(endDate, cfg.EndDate)
		if err != nil {
			return err
		}

		data, err := client.Historical(ctx, services.HistoryQuery{
			Lon:      lon,
			Lat:      lat,
			Field:    dataField,
			Start:    start,
			End:      end,
			Interval: step,
		})
		if err != nil {
			return err
		}
		return printJSON(data)
	},
}

func parseDate(s string, fallback time.Time) (time.Time, error) {
	if s == "" {
		return fallback, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func init() {
	fetchCmd.Flags().Float64Var(&lon, "lon", 0, "longitude (default: $LONGITUDE)")
	fetchCmd.Flags().Float64Var(&lat, "lat", 0, "latitude (default: $LATITUDE)")
	fetchCmd.Flags().StringVar(&field, "field", string(services.FieldTemperature), "weather variable")
	fetchCmd.Flags().StringVar(&startDate, "start", "", "first day, YYYY-MM-DD (default: $START_DATE)")
	fetchCmd.Flags().StringVar(&endDate, "end", "", "last day, YYYY-MM-DD (default: $END_DATE)")
	fetchCmd.Flags().StringVar(&interval, "interval", string(services.Hourly), "hourly or daily")
	fetchCmd.Flags().BoolVar(&current, "current", false, "fetch the latest reading instead of a series")
}
