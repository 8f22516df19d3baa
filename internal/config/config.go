package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer

	Database Database `envPrefix:"DATABASE_"`
	Storage  Storage  `envPrefix:"STORAGE_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	Discount Discount `envPrefix:"DISCOUNT_"`
	Auth     Auth     `envPrefix:"AUTH_"`
	Session  Session  `envPrefix:"SESSION_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"` // sqlite | mysql
	URL    string `env:"URL" envDefault:"kusheet.db"`
}

// Storage selects where device "local storage" lives.
type Storage struct {
	Driver string `env:"DRIVER" envDefault:"gorm"` // gorm | redis | memory
}

type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	Prefix   string `env:"PREFIX" envDefault:"kusheet"`
}

type Discount struct {
	BaseApiURL string        `env:"BASE_API_URL" envDefault:"http://localhost:8080"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"30s"`
	SeedDemo   bool          `env:"SEED_DEMO" envDefault:"true"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Session struct {
	IdleTimeout   time.Duration `env:"IDLE_TIMEOUT" envDefault:"30m"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`
}
