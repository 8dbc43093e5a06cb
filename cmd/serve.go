package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/salary-predictor/internal/logger"
	"github.com/spigell/salary-predictor/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve salary estimates over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap(ctx, true)
	if err != nil {
		l := newLogger(nil)
		if svc != nil {
			l = svc.logger
		}
		// The artifact is loaded before listening so no request is served without a model.
		l.Fatal("loading the model", zap.Error(err))
	}
	defer logger.Sync(svc.logger)

	srv := server.New(svc.estimator, svc.config.Server, svc.logger)
	if err := srv.Run(ctx); err != nil {
		svc.logger.Fatal("serving http", zap.Error(err))
	}
}
