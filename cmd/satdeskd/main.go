package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/satdesk/satdesk-daemon/config"
	"github.com/satdesk/satdesk-daemon/internal/core/application"
	"github.com/satdesk/satdesk-daemon/internal/infrastructure/pricefeed/yadio"
	dbbadger "github.com/satdesk/satdesk-daemon/internal/infrastructure/storage/db/badger"
	"github.com/satdesk/satdesk-daemon/pkg/crypter"
)

func main() {
	log.SetLevel(config.GetLogLevel())

	if !config.IsSet(config.PrivateKeyKey) {
		log.Panicf("%s must be set in the environment", config.PrivateKeyKey)
	}
	keyPair, err := crypter.KeyPairFromHex(config.GetString(config.PrivateKeyKey))
	if err != nil {
		log.WithError(err).Panic("error while loading broker key")
	}
	defer keyPair.Zero()

	dbDir := filepath.Join(config.GetDatadir(), config.DbLocation)
	dbManager, err := dbbadger.NewDbManager(dbDir, nil)
	if err != nil {
		log.WithError(err).Panic("error while opening db")
	}
	defer dbManager.Close()

	priceSource := yadio.NewService(
		config.GetString(config.PriceEndpointKey),
		time.Duration(config.GetInt(config.PriceRequestTimeoutKey))*time.Millisecond,
	)

	brokerSvc, err := application.NewBrokerService(
		keyPair,
		dbbadger.NewOrderRepositoryImpl(dbManager),
		dbbadger.NewDisputeRepositoryImpl(dbManager),
		dbbadger.NewUserRepositoryImpl(dbManager),
		priceSource,
		config.GetDuration(config.OrderExpiryTimeKey),
		int64(config.GetInt(config.MinOrderAmountKey)),
		int64(config.GetInt(config.MaxOrderAmountKey)),
	)
	if err != nil {
		log.WithError(err).Panic("error while starting broker")
	}

	log.Infof("broker pubkey: %s", brokerSvc.PubKey())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go expireLoop(ctx, brokerSvc)

	log.Debug("starting daemon")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Debug("exiting")
}

// expireLoop periodically sweeps the order book for orders whose
// expiration has passed and flips them to expired.
func expireLoop(ctx context.Context, svc application.BrokerService) {
	interval := config.GetDuration(config.ExpiryScanIntervalKey)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			count, err := svc.ExpireOrders(ctx, now)
			if err != nil {
				log.WithError(err).Warn("error while expiring orders")
				continue
			}
			if count > 0 {
				log.Infof("expired %d orders", count)
			}
		}
	}
}
