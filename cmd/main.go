// Command motormate runs the MotorMate API and its maintenance tasks.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "motormate",
		Short:         "Vehicle expense and trip tracking backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newRelinkCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("motormate failed")
		os.Exit(1)
	}
}
