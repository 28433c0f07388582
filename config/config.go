package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the internal state of
	// the daemon
	DatadirKey = "DATA_DIR_PATH"
	// LogLevelKey are the different logging levels. For reference on the
	// values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// OrderExpiryTimeKey is the duration in seconds a published order stays
	// takeable before it is expired
	OrderExpiryTimeKey = "ORDER_EXPIRY_TIME"
	// ExpiryScanIntervalKey is the interval in seconds between two scans of
	// the order book for expirable orders
	ExpiryScanIntervalKey = "EXPIRY_SCAN_INTERVAL"
	// CoopCancelWindowKey is the duration in seconds a pending cooperative
	// cancellation waits for the counterparty before being discarded
	CoopCancelWindowKey = "COOP_CANCEL_WINDOW"
	// InvoiceExpiryWindowKey is the duration in seconds the buyer has to
	// provide an invoice before the trade is torn down
	InvoiceExpiryWindowKey = "INVOICE_EXPIRY_WINDOW"
	// PaymentAttemptsKey is the number of times the payout of a settled
	// trade is retried before requiring a new invoice from the buyer
	PaymentAttemptsKey = "PAYMENT_ATTEMPTS"
	// MinOrderAmountKey is the minimum tradeable amount in satoshis
	MinOrderAmountKey = "MIN_ORDER_AMOUNT"
	// MaxOrderAmountKey is the maximum tradeable amount in satoshis
	MaxOrderAmountKey = "MAX_ORDER_AMOUNT"
	// PrivateKeyKey is the hex encoded secret key the broker signs and
	// decrypts envelopes with. It has no default and must be provided
	PrivateKeyKey = "PRIVATE_KEY"
	// PriceEndpointKey is the base URL of the exchange rates API used to
	// resolve market priced orders
	PriceEndpointKey = "PRICE_ENDPOINT"
	// PriceRequestTimeoutKey is the timeout in milliseconds for a single
	// request to the exchange rates API
	PriceRequestTimeoutKey = "PRICE_REQUEST_TIMEOUT"

	DbLocation = "db"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("satdesk-daemon", false)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("SATDESK")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(OrderExpiryTimeKey, 86400)
	vip.SetDefault(ExpiryScanIntervalKey, 300)
	vip.SetDefault(CoopCancelWindowKey, 3600)
	vip.SetDefault(InvoiceExpiryWindowKey, 900)
	vip.SetDefault(PaymentAttemptsKey, 3)
	vip.SetDefault(MinOrderAmountKey, 100)
	vip.SetDefault(MaxOrderAmountKey, 20000000)
	vip.SetDefault(PriceEndpointKey, "https://api.yadio.io")
	vip.SetDefault(PriceRequestTimeoutKey, 15000)

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

//GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

//GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

//GetDuration returns the value of the given key as a duration in seconds
func GetDuration(key string) time.Duration {
	return time.Duration(vip.GetInt(key)) * time.Second
}

//GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

// GetDatadir returns the data directory of the daemon
func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetLogLevel returns the configured logrus level
func GetLogLevel() log.Level {
	return log.Level(GetInt(LogLevelKey))
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the give key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	logLevel := GetInt(LogLevelKey)
	if logLevel < int(log.PanicLevel) || logLevel > int(log.TraceLevel) {
		return fmt.Errorf(
			"log level must be in range [%d, %d]",
			log.PanicLevel, log.TraceLevel,
		)
	}

	if GetInt(OrderExpiryTimeKey) <= 0 {
		return fmt.Errorf("order expiry time must be a positive number of seconds")
	}
	if GetInt(ExpiryScanIntervalKey) <= 0 {
		return fmt.Errorf("expiry scan interval must be a positive number of seconds")
	}
	if GetInt(CoopCancelWindowKey) <= 0 {
		return fmt.Errorf("cooperative cancel window must be a positive number of seconds")
	}
	if GetInt(InvoiceExpiryWindowKey) <= 0 {
		return fmt.Errorf("invoice expiry window must be a positive number of seconds")
	}
	if GetInt(PaymentAttemptsKey) <= 0 {
		return fmt.Errorf("payment attempts must be a positive number")
	}

	min, max := GetInt(MinOrderAmountKey), GetInt(MaxOrderAmountKey)
	if min <= 0 || max <= min {
		return fmt.Errorf(
			"order amount limits must satisfy 0 < min < max, got [%d, %d]",
			min, max,
		)
	}

	endpoint, err := url.Parse(GetString(PriceEndpointKey))
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return fmt.Errorf("price endpoint must be a valid URL")
	}
	if GetInt(PriceRequestTimeoutKey) <= 0 {
		return fmt.Errorf("price request timeout must be a positive number of milliseconds")
	}
	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	return makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
