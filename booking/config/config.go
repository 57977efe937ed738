package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Astemirdum/room-booking/pkg/auth"
	"github.com/Astemirdum/room-booking/pkg/kafka"
	"github.com/Astemirdum/room-booking/pkg/logger"
	"github.com/Astemirdum/room-booking/pkg/postgres"
	"github.com/kelseyhightower/envconfig"
)

type Storage string

const (
	StoragePostgres Storage = "postgres"
	StorageMemory   Storage = "memory"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"BOOKING_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"BOOKING_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE"`
}

type Config struct {
	Server   HTTPServer  `yaml:"server"`
	Storage  Storage     `yaml:"storage" envconfig:"BOOKING_STORAGE"`
	Database postgres.DB `yaml:"db"`
	Kafka    kafka.Config
	Auth     auth.Config
	Log      logger.Log `yaml:"log"`
}

func (c Config) Validate() error {
	switch c.Storage {
	case StoragePostgres, StorageMemory:
		return nil
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		if err := envconfig.Process("", &config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		if config.Storage == "" {
			config.Storage = StoragePostgres
		}
		if err := config.Validate(); err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg Config) {
	cfg.Database.Password = "***"
	cfg.Auth.JWTKey = "***"
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
