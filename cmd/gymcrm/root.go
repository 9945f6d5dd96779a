package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/gymcrm/pkg/clientip"
	"github.com/dmitrymomot/gymcrm/pkg/config"
	"github.com/dmitrymomot/gymcrm/pkg/logger"
	"github.com/dmitrymomot/gymcrm/pkg/requestid"
)

type cli struct {
	envFiles []string
	log      *slog.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "gymcrm",
		Short:         "Gym membership lifecycle service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config.SetEnvFiles(c.envFiles...)
			logCfg, err := load[logger.Config]()
			if err != nil {
				return err
			}
			c.log = logger.NewFromConfig(logCfg, logger.WithContextExtractors(
				requestid.LoggerExtractor(),
				clientip.LoggerExtractor(),
			))
			logger.SetAsDefault(c.log)
			return nil
		},
	}
	root.PersistentFlags().StringSliceVar(&c.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")

	root.AddCommand(
		newServeCommand(c),
		newMigrateCommand(c),
		newSeedPlansCommand(c),
		newExpireCommand(c),
		newDeadLettersCommand(c),
	)
	return root
}
