package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel          string `yaml:"log-level" env-default:"info"`
	HTTPPort          string `yaml:"http-port" env-default:"9090"`
	SocketPort        string `yaml:"socket-port" env-default:"8080"`
	Redis             Redis  `yaml:"redis"`
	LedgerStoragePath string `yaml:"ledger-storage-path" env-default:"bingoton.db"`
	Game              Game   `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

type Game struct {
	TicketPrice       float64       `yaml:"ticket-price" env-default:"0.2"`
	MaxCardsPerPlayer int           `yaml:"max-cards-per-player" env-default:"24"`
	DrawInterval      time.Duration `yaml:"draw-interval" env-default:"8s"`
	ResolveCooldown   time.Duration `yaml:"resolve-cooldown" env-default:"60s"`
	PollInterval      time.Duration `yaml:"poll-interval" env-default:"1s"`
	SendTimeout       time.Duration `yaml:"send-timeout" env-default:"5s"`
	TickBackoff       time.Duration `yaml:"tick-backoff" env-default:"10s"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
