package cli

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	telegram "house-inspect/internal/api"
	"house-inspect/internal/api/rest"
)

func newServeCmd() *cobra.Command {
	var (
		addr    string
		withBot bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API with report downloads and Prometheus metrics.
With --bot the Telegram bot runs in the same process and shares storage.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			if withBot && cfg.Telegram.Token == "" {
				return errors.New("telegram token is required (TELEGRAM_TOKEN)")
			}
			if cfg.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			c, err := bootstrap(cmd, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			router := rest.NewRouter(
				rest.NewHandler(c.InspectionService, c.ReportService, c.Logger),
				prometheus.DefaultGatherer,
			)

			var bot *telegram.Bot
			if withBot {
				if bot, err = telegram.NewBot(cfg.Telegram.Token, c); err != nil {
					return err
				}
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return rest.Serve(ctx, cfg.HTTP.Addr, router, c.Logger)
			})
			if bot != nil {
				g.Go(func() error {
					return bot.Run(ctx)
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	cmd.Flags().BoolVar(&withBot, "bot", false, "also run the Telegram bot")
	return cmd
}
