package config

import (
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Exchange *exchangeConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"sqlite"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"docflow.db"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address        string `envconfig:"DOCFLOW_ADDRESS" default:":8000"`
	MetricsAddress string `envconfig:"DOCFLOW_METRICS_ADDRESS" default:":8080"`
	BaseUrl        string `envconfig:"DOCFLOW_BASE_URL" default:"http://localhost:8000"`
	LogLevel       string `envconfig:"DOCFLOW_LOG_LEVEL" default:"info"`
	DownloadDir    string `envconfig:"DOCFLOW_DOWNLOAD_DIR" default:"/var/lib/docflow/downloads"`
}

type exchangeConfig struct {
	// PortalRoot is the exchange directory shared with the portal automation worker.
	PortalRoot string `envconfig:"DOCFLOW_EXCHANGE_PORTAL_ROOT" default:"/var/lib/docflow/exchange/portal"`
	// DocumentRoot is the exchange directory shared with the document analysis worker.
	DocumentRoot string `envconfig:"DOCFLOW_EXCHANGE_DOCUMENT_ROOT" default:"/var/lib/docflow/exchange/ocr"`
	// WaitTimeout is the maximum time, in seconds, the bridge waits for a result.
	WaitTimeout int `envconfig:"DOCFLOW_EXCHANGE_WAIT_TIMEOUT" default:"120"`
	// PollInterval is the bridge result poll interval in milliseconds.
	PollInterval int `envconfig:"DOCFLOW_EXCHANGE_POLL_INTERVAL" default:"500"`
	// BatchConcurrency caps the number of documents validated concurrently.
	BatchConcurrency int `envconfig:"DOCFLOW_BATCH_CONCURRENCY" default:"4"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

func NewDefault() *Config {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}
