package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Questions QuestionsConfig `mapstructure:"questions"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr           string  `mapstructure:"addr"`
	Mode           string  `mapstructure:"mode"`
	StaticDir      string  `mapstructure:"static_dir"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type QuestionsConfig struct {
	Source string `mapstructure:"source"` // file | redis
	File   string `mapstructure:"file"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

const (
	SourceFile  = "file"
	SourceRedis = "redis"
)

// Load lee config.yaml (opcional) desde path y aplica variables QUIZ_*.
// Ej: QUIZ_SERVER_ADDR=:9000, QUIZ_QUESTIONS_SOURCE=redis.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.AddConfigPath(path)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("QUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Compatibilidad con el despliegue anterior
	_ = v.BindEnv("redis.addr", "QUIZ_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "QUIZ_REDIS_PASSWORD", "REDIS_PASSWORD")
	_ = v.BindEnv("server.addr", "QUIZ_SERVER_ADDR", "HTTP_ADDR")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error leyendo config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decodificando config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.static_dir", "public")
	v.SetDefault("server.rate_limit_rps", 50.0)
	v.SetDefault("server.rate_limit_burst", 100)
	v.SetDefault("questions.source", SourceFile)
	v.SetDefault("questions.file", "data/questions.json")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.file", "")
}

func (c *Config) Validate() error {
	switch c.Questions.Source {
	case SourceFile, SourceRedis:
	default:
		return fmt.Errorf("questions.source desconocido: %q", c.Questions.Source)
	}
	if c.Questions.File == "" {
		return errors.New("questions.file es requerido")
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		return errors.New("rate limit no puede ser negativo")
	}
	return nil
}
