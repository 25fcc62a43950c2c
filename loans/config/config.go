package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-loans/pkg/kafka"
	"github.com/Astemirdum/library-loans/pkg/logger"
	"github.com/Astemirdum/library-loans/pkg/postgres"
	"github.com/Astemirdum/library-loans/pkg/validate"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE"`
}

type Auth struct {
	// JWTKey enables HS256 bearer authentication, gateway headers are trusted when empty.
	JWTKey string `yaml:"jwtKey" envconfig:"AUTH_JWT_KEY" json:"-"`
}

type Storage struct {
	Kind string `yaml:"kind" envconfig:"STORAGE" default:"postgres" validate:"oneof=postgres memory"`
	// SeedFile is a JSON snapshot loaded into the memory store at startup.
	SeedFile string `yaml:"seedFile" envconfig:"SEED_FILE"`
}

type Policy struct {
	MaxActiveLoans   int `yaml:"maxActiveLoans" envconfig:"MAX_ACTIVE_LOANS" default:"3" validate:"gte=0"`
	LoanDurationDays int `yaml:"loanDurationDays" envconfig:"LOAN_DURATION_DAYS" default:"7" validate:"gte=1"`
	FinePerDay       int `yaml:"finePerDay" envconfig:"FINE_PER_DAY" default:"1000" validate:"gte=0"`
	MaxExtensions    int `yaml:"maxExtensions" envconfig:"MAX_EXTENSIONS" default:"1" validate:"gte=0"`
}

type Config struct {
	Server   HTTPServer  `yaml:"server"`
	Database postgres.DB `yaml:"db"`
	Kafka    kafka.Config
	Log      logger.Log `yaml:"log"`
	Auth     Auth
	Storage  Storage
	Policy   Policy
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment. Options set values that the
// environment may still override.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		if err = config.Validate(); err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
		printConfig(cfg)
	})

	return cfg
}

// Validate rejects policy values that would produce negative fines or past due dates.
func (c *Config) Validate() error {
	return errors.Wrap(validate.NewCustomValidator().Validate(c), "validate config")
}

func printConfig(cfg *Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
