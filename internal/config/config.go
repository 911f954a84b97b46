package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string    `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis      Redis     `yaml:"redis"`
	Session    Session   `yaml:"session"`
	Lobby      Lobby     `yaml:"lobby"`
	Transport  Transport `yaml:"transport"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Session - pacing of the games.
type Session struct {
	SettleDelay  time.Duration `yaml:"settle-delay" env-default:"3s"`
	MoveDelay    time.Duration `yaml:"move-delay" env-default:"250ms"`
	BotMoveDelay time.Duration `yaml:"bot-move-delay" env-default:"250ms"`
	JoinTimeout  time.Duration `yaml:"join-timeout" env-default:"10m"`
}

// Lobby - public session listing.
type Lobby struct {
	TTL      time.Duration `yaml:"ttl" env-default:"10s"`
	Interval time.Duration `yaml:"interval" env-default:"1s"`
}

type Transport struct {
	AllowedOrigins []string `yaml:"allowed-origins" env:"ALLOWED_ORIGINS" env-default:"*"`
	MessageRate    float64  `yaml:"message-rate" env-default:"10"`
	MessageBurst   int      `yaml:"message-burst" env-default:"20"`
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
