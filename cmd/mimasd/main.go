// Command mimasd is the server entry point: a small cobra root command
// wrapping the serve/migrate/version subcommands, matching the shape
// orbas1-Synnergy's cmd/synnergy/main.go builds its CLI with (a bare root
// command plus one constructor function per subcommand group), generalized
// from the teacher's flat main.go wiring sequence (construct manager,
// construct state, construct hub, start ticker, register handler, listen).
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	var logLevel string

	root := &cobra.Command{
		Use:   "mimasd",
		Short: "mimas game server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(lvl)
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("mimasd exited with an error")
		os.Exit(1)
	}
}
