package cli

import (
	"errors"

	"github.com/spf13/cobra"

	telegram "house-inspect/internal/api"
)

func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Telegram.Token == "" {
				return errors.New("telegram token is required (TELEGRAM_TOKEN)")
			}

			c, err := bootstrap(cmd, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			bot, err := telegram.NewBot(cfg.Telegram.Token, c)
			if err != nil {
				return err
			}

			c.Logger.Info("bot is running")
			return bot.Run(cmd.Context())
		},
	}
}
