// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	GRPCServer              `yaml:"grpc_server"`
	JWTToken                `yaml:"jwttoken"`
	GenAI                   `yaml:"genai"`
	RabbitMQ                `yaml:"rabbitmq"`
	Hub                     `yaml:"hub"`
	Wizard                  `yaml:"wizard"`
	RateLimit               `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// GRPCServer структура для настройки gRPC health-сервера
type GRPCServer struct {
	AddressGRPC   string        `yaml:"addressgrpc" env-default:":50051"`
	CheckInterval time.Duration `yaml:"check_interval" env-default:"15s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// GenAI структура для настройки клиента генеративной модели
type GenAI struct {
	APIKey       string        `yaml:"api_key" env:"GENAI_API_KEY"`
	APIKeyFile   string        `yaml:"api_key_file" env:"GENAI_API_KEY_FILE"`
	TextModel    string        `yaml:"text_model" env-default:"gemini-3-flash-preview"`
	VisionModel  string        `yaml:"vision_model" env-default:"gemini-3-pro-preview"`
	ImageModel   string        `yaml:"image_model" env-default:"gemini-3-pro-image-preview"`
	SpeechModel  string        `yaml:"speech_model" env-default:"gemini-2.5-flash-preview-tts"`
	MapsModel    string        `yaml:"maps_model" env-default:"gemini-2.5-flash"`
	VideoModel   string        `yaml:"video_model" env-default:"veo-3.1-fast-generate-preview"`
	Voice        string        `yaml:"voice" env-default:"Zephyr"`
	PollInterval time.Duration `yaml:"poll_interval" env-default:"10s"`
}

// RabbitMQ структура для настройки подключения к брокеру
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Hub структура для настройки страницы ссылок
type Hub struct {
	PublicURLTemplate string        `yaml:"public_url_template" env-default:"https://vendo.page/%s"`
	QRSize            int           `yaml:"qr_size" env-default:"256"`
	UnblurTTL         time.Duration `yaml:"unblur_ttl" env-default:"12h"`
	HeartbeatEnabled  bool          `yaml:"heartbeat_enabled"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" env-default:"5s"`
}

// Wizard структура для настройки мастера создания рекламы
type Wizard struct {
	TickInterval time.Duration `yaml:"tick_interval" env-default:"5s"`
	FinishDelay  time.Duration `yaml:"finish_delay" env-default:"1s"`
	SessionTTL   time.Duration `yaml:"session_ttl" env-default:"6h"`
}

// RateLimit структура для ограничения запросов к AI-эндпоинтам
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"1"`
	Burst int     `yaml:"burst" env-default:"3"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из config/config.go
func MustLoad() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  User: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"GRPCServer:\n"+
			"  Address: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"GenAI:\n"+
			"  TextModel: %s\n"+
			"  VideoModel: %s\n"+
			"Hub:\n"+
			"  PublicURLTemplate: %s\n",
		c.Env,
		c.StorageConnectionString,
		c.AddressRedis,
		c.RedisConnection.User,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressGRPC,
		c.TokenTTL,
		c.TextModel,
		c.VideoModel,
		c.PublicURLTemplate,
	)
}
