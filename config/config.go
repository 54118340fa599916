package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Elastic    ElasticConfig
	ServiceBus ServiceBusConfig
	NewRelic   NewRelicConfig
	Farm       FarmConfig
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port int
	Mode string // debug, release, test
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Debug           bool
}

// RedisConfig holds the Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// ElasticConfig holds the Elasticsearch configuration
type ElasticConfig struct {
	URL      string
	Username string
	Password string
	Prefix   string
	Enabled  bool
}

// ServiceBusConfig holds the Azure Service Bus configuration
type ServiceBusConfig struct {
	ConnectionString string
	TopicName        string
}

// NewRelicConfig holds the New Relic configuration
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// FarmConfig holds the domain tunables
type FarmConfig struct {
	// HeartbeatTimeout is how long equipment may stay silent before the
	// sweeper forces it offline
	HeartbeatTimeout time.Duration
	// SweepInterval is how often the heartbeat sweeper runs
	SweepInterval time.Duration
	// CommandRetention is how long a command may sit in the queue before
	// it expires
	CommandRetention time.Duration
	// PurgeInterval is how often expired commands are deleted
	PurgeInterval time.Duration
	// QueueDriver selects the command queue backend: postgres or memory
	QueueDriver string
	// StatusCacheTTL bounds how stale a cached device-status snapshot
	// may get
	StatusCacheTTL time.Duration
	// IndexerWorkers sizes the async reading indexer pool
	IndexerWorkers int
	// IndexerQueueSize bounds the indexer job backlog
	IndexerQueueSize int
}

// FormatIndex formats an Elasticsearch index name with the configured prefix
func FormatIndex(cfg ElasticConfig, index string) string {
	return cfg.Prefix + "-" + index
}

// InitConfig initializes the configuration using Viper
func InitConfig(cfgFile string) error {
	// Set defaults for configuration
	setDefaults()

	// Use config file from the flag if provided
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in common directories with name "config"
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/farm-service")
		viper.SetConfigName("config")
	}

	// Set environment variable prefix for config overrides
	viper.SetEnvPrefix("FARM")

	// Enable automatic environment variable binding
	// For example, FARM_SERVER_PORT will override server.port
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read configuration
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, using defaults and environment variables
			fmt.Println("No config file found, using defaults and environment variables")
		} else {
			// Config file was found but another error occurred
			return fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	return nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8094)
	viper.SetDefault("server.mode", "debug")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "farm")
	viper.SetDefault("database.password", "farm")
	viper.SetDefault("database.dbname", "farm_service_db")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxopenconns", 50)
	viper.SetDefault("database.maxidleconns", 10)
	viper.SetDefault("database.connmaxlifetime", 30*time.Minute)
	viper.SetDefault("database.debug", false)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.enabled", true)

	// Elasticsearch defaults
	viper.SetDefault("elastic.url", "http://localhost:9200")
	viper.SetDefault("elastic.prefix", "dev")
	viper.SetDefault("elastic.enabled", false)

	// Service Bus defaults - no default connection string for security
	viper.SetDefault("servicebus.topicname", "farm-events")

	// New Relic defaults
	viper.SetDefault("newrelic.appname", "Farm Service Local")
	viper.SetDefault("newrelic.enabled", false)

	// Domain defaults
	viper.SetDefault("farm.heartbeattimeout", 5*time.Minute)
	viper.SetDefault("farm.sweepinterval", time.Minute)
	viper.SetDefault("farm.commandretention", 24*time.Hour)
	viper.SetDefault("farm.purgeinterval", 15*time.Minute)
	viper.SetDefault("farm.queuedriver", "postgres")
	viper.SetDefault("farm.statuscachettl", 30*time.Second)
	viper.SetDefault("farm.indexerworkers", 4)
	viper.SetDefault("farm.indexerqueuesize", 256)
}

// Load loads the configuration
func Load() (*Config, error) {
	// Server
	serverConfig := ServerConfig{
		Port: viper.GetInt("server.port"),
		Mode: viper.GetString("server.mode"),
	}

	// Database
	dbConfig := DatabaseConfig{
		Host:            viper.GetString("database.host"),
		Port:            viper.GetInt("database.port"),
		User:            viper.GetString("database.user"),
		Password:        viper.GetString("database.password"),
		DBName:          viper.GetString("database.dbname"),
		SSLMode:         viper.GetString("database.sslmode"),
		MaxOpenConns:    viper.GetInt("database.maxopenconns"),
		MaxIdleConns:    viper.GetInt("database.maxidleconns"),
		ConnMaxLifetime: viper.GetDuration("database.connmaxlifetime"),
		Debug:           viper.GetBool("database.debug"),
	}

	// Redis
	redisConfig := RedisConfig{
		Host:     viper.GetString("redis.host"),
		Port:     viper.GetInt("redis.port"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
		Enabled:  viper.GetBool("redis.enabled"),
	}

	// Elasticsearch
	elasticConfig := ElasticConfig{
		URL:      viper.GetString("elastic.url"),
		Username: viper.GetString("elastic.username"),
		Password: viper.GetString("elastic.password"),
		Prefix:   viper.GetString("elastic.prefix"),
		Enabled:  viper.GetBool("elastic.enabled"),
	}

	// Service Bus
	serviceBusConfig := ServiceBusConfig{
		ConnectionString: viper.GetString("servicebus.connectionstring"),
		TopicName:        viper.GetString("servicebus.topicname"),
	}

	// New Relic
	newRelicConfig := NewRelicConfig{
		AppName:    viper.GetString("newrelic.appname"),
		LicenseKey: viper.GetString("newrelic.licensekey"),
		Enabled:    viper.GetBool("newrelic.enabled"),
	}

	// Domain
	farmConfig := FarmConfig{
		HeartbeatTimeout: viper.GetDuration("farm.heartbeattimeout"),
		SweepInterval:    viper.GetDuration("farm.sweepinterval"),
		CommandRetention: viper.GetDuration("farm.commandretention"),
		PurgeInterval:    viper.GetDuration("farm.purgeinterval"),
		QueueDriver:      viper.GetString("farm.queuedriver"),
		StatusCacheTTL:   viper.GetDuration("farm.statuscachettl"),
		IndexerWorkers:   viper.GetInt("farm.indexerworkers"),
		IndexerQueueSize: viper.GetInt("farm.indexerqueuesize"),
	}

	return &Config{
		Server:     serverConfig,
		Database:   dbConfig,
		Redis:      redisConfig,
		Elastic:    elasticConfig,
		ServiceBus: serviceBusConfig,
		NewRelic:   newRelicConfig,
		Farm:       farmConfig,
	}, nil
}
