package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rm-hull/ev-partner-gateway/cmd"
)

func main() {
	var port int
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "ev-partner-gateway",
		Short: "Credential-hiding gateway in front of the EV partner API",
	}

	apiServerCmd := &cobra.Command{
		Use:   "api-server",
		Short: "Start the HTTP API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.ApiServer(port, debug)
		},
	}
	apiServerCmd.Flags().IntVar(&port, "port", 8080, "Port to run HTTP server on")
	apiServerCmd.Flags().BoolVar(&debug, "debug", false, "Enable debugging (pprof) - WARNING: do not enable in production")

	callCmd := &cobra.Command{
		Use:     "call <action> [params-json]",
		Short:   "Run a single action against the partner and print the response envelope",
		Example: `  ev-partner-gateway call getVehicleBattery '{"vehicleId":"veh_1"}'`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			params := ""
			if len(args) == 2 {
				params = args[1]
			}
			return cmd.Call(os.Stdout, args[0], params)
		},
	}

	rootCmd.AddCommand(apiServerCmd, callCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
