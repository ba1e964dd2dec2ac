package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/datson-api/internal/config"
	"github.com/Conceptual-Machines/datson-api/internal/services"
)

var (
	// Global flags
	inputFile  string
	outputFile string
	durationS  float64

	// Global configuration
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "datsonctl",
	Short: "Map data series onto musical control data",
	Long: `datsonctl runs the datson mapping pipelines locally.

Every command reads a request body from -f (YAML or JSON, "-" or empty for
stdin) and prints JSON. Defaults come from the same environment variables
as the server (DURATION, LOWEST_MIDI_NOTE, WINDOW_SIZE, ...); a .env file in
the working directory is loaded first.

Examples:
  # Notes from a request file
  datsonctl notes -f notes.yaml --start-note 48

  # Rolling average deviation
  datsonctl stats rolling_average -f data.json --window 7 --deviation

  # Fetch yesterday's temperatures and write a MIDI file
  datsonctl fetch --field temperature_2m
  datsonctl export -f tracks.json -o track.mid`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "input request file (YAML or JSON, default: stdin)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().Float64VarP(&durationS, "duration", "d", 0, "total duration in seconds (default: $DURATION)")

	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(chordsCmd)
	rootCmd.AddCommand(droneCmd)
	rootCmd.AddCommand(ccCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(exportCmd)
}

func initConfig() {
	_ = godotenv.Load()
	cfg = config.Load()
	if durationS == 0 {
		durationS = cfg.DurationS
	}
}

// newService builds a sonification service without metrics sinks.
func newService() *services.SonificationService {
	return services.NewSonificationService(nil, nil, cfg.MaxPolynomialDegree)
}
