package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/config"
	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/app"
	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/notify"
	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/payment"
	"github.com/ZiadAmrAbdElmonaam/embabi-store-next-sub000/internal/storeapi"
)

var (
	configFile = flag.String("c", "embabi-store.yml", "configuration file")
	initDb     = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
)

func main() {
	flag.Parse()

	cfg := config.LoadConfig(*configFile)
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initDb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	if cfg.Payment.IntentURL != "" {
		surcharge := application.Settings().GetFloat64("checkout", "online_surcharge_percent")
		application.AttachPaymentGateway(
			payment.NewHTTPGateway(cfg.Payment.IntentURL, cfg.Payment.APIKey, surcharge))
	}

	mailer, err := notify.NewMailer(cfg.Smtp, application.DB())
	if err != nil {
		zap.S().Fatalf("mailer init failed: %v", err)
	}
	defer mailer.Close()
	if err := mailer.Subscribe(application.Bus()); err != nil {
		zap.S().Errorf("mailer subscribe failed: %v", err)
	}

	server := storeapi.NewServer(application)
	go func() {
		if err := server.Start(); err != nil {
			zap.S().Fatalf("webserver stopped: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zap.S().Info("shutting down")
}
