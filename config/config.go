package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Auth       AuthConfig       `yaml:"auth"`
	Credits    CreditsConfig    `yaml:"credits"`
	Chat       ChatConfig       `yaml:"chat"`
	Generation GenerationConfig `yaml:"generation"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Addr               string   `yaml:"addr"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	// 동시에 열어둘 수 있는 TCP 연결 수. 0 이면 제한 없음.
	MaxConnections int `yaml:"max_connections"`
}

// StorageConfig 는 영속 저장소 드라이버를 선택한다.
// driver 가 "mongo" 이면 MongoDB, "sqlite" 이면 내장 SQLite 파일을 사용한다.
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	MongoURI    string `yaml:"mongo_uri"`
	MongoDBName string `yaml:"mongo_db_name"`
	SQLitePath  string `yaml:"sqlite_path"`
}

type AuthConfig struct {
	Issuer   string        `yaml:"issuer"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// CreditsConfig 는 메시지 1건당 고정 차감 크레딧을 정의한다.
// 요청 처리 도중에는 바뀌지 않는다.
type CreditsConfig struct {
	MessageCost int64 `yaml:"message_cost"`
}

type ChatConfig struct {
	DefaultTitle     string `yaml:"default_title"`
	TitleMaxLength   int    `yaml:"title_max_length"`
	MaxContentLength int    `yaml:"max_content_length"`
}

// GenerationConfig 는 Gemini 호출 설정과 호출 한도를 정의한다.
type GenerationConfig struct {
	Provider          string        `yaml:"provider"`
	ModelName         string        `yaml:"model_name"`
	SystemInstruction string        `yaml:"system_instruction"`
	Timeout           time.Duration `yaml:"timeout"`
	MinPromptRunes    int           `yaml:"min_prompt_runes"`
	FallbackReply     string        `yaml:"fallback_reply"`

	// RequestsPerMinute 는 사용자별 분당 최대 생성 요청 수이다. 0 이하면 제한 없음.
	RequestsPerMinute int `yaml:"requests_per_minute"`
	// RequestsPerDay 는 인스턴스 전체의 일일 최대 생성 요청 수이다. 0 이하면 제한 없음.
	RequestsPerDay int `yaml:"requests_per_day"`
}

type RealtimeConfig struct {
	Path           string        `yaml:"path"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	SendBuffer     int           `yaml:"send_buffer"`
}

// EventBusConfig 는 이벤트 버스 구현을 선택한다.
// "local" 은 프로세스 내부 전달, "kafka" 는 KAFKA_BOOTSTRAP_SERVERS 를 사용한다.
type EventBusConfig struct {
	Driver     string `yaml:"driver"`
	Partitions int    `yaml:"partitions"`
}

var (
	mu     sync.RWMutex
	config *AppConfig
)

// InitApp 은 .env 와 config.yaml 을 읽어 전역 설정을 초기화한다.
// config.yaml 이 없으면 기본값만으로 동작한다.
func InitApp() {
	base := GetBasePath()
	_ = godotenv.Load(filepath.Join(base, ENV_FILE))

	cfgPath := filepath.Join(base, CONFIG_FILE)
	c, err := Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			panic(err)
		}
		c = Default()
	}
	SetConfig(c)
}

// Load 는 지정된 경로의 YAML 설정을 읽고 기본값과 환경변수를 반영한다.
func Load(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	return Parse(data)
}

// Parse 는 YAML 바이트를 AppConfig 로 변환한다.
func Parse(data []byte) (AppConfig, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return AppConfig{}, fmt.Errorf("parse %s: %w", CONFIG_FILE, err)
	}
	c.applyDefaults()
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return AppConfig{}, err
	}
	return c, nil
}

// Default 는 설정 파일이 없을 때 사용하는 기본 설정이다.
func Default() AppConfig {
	c := AppConfig{}
	c.applyDefaults()
	c.applyEnv()
	return c
}

func (c *AppConfig) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "mongo"
	}
	if c.Storage.MongoDBName == "" {
		c.Storage.MongoDBName = "chatline"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "chatline.db"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "chatline"
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 7 * 24 * time.Hour
	}
	if c.Credits.MessageCost <= 0 {
		c.Credits.MessageCost = 10
	}
	if c.Chat.DefaultTitle == "" {
		c.Chat.DefaultTitle = "New Chat"
	}
	if c.Chat.TitleMaxLength <= 0 {
		c.Chat.TitleMaxLength = 40
	}
	if c.Chat.MaxContentLength <= 0 {
		c.Chat.MaxContentLength = 8000
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "google"
	}
	if c.Generation.ModelName == "" {
		c.Generation.ModelName = "gemini-1.5-flash"
	}
	if c.Generation.Timeout <= 0 {
		c.Generation.Timeout = 60 * time.Second
	}
	if c.Generation.MinPromptRunes <= 0 {
		c.Generation.MinPromptRunes = 2
	}
	if c.Generation.FallbackReply == "" {
		c.Generation.FallbackReply = "Could you tell me a bit more about what you need?"
	}
	if c.Realtime.Path == "" {
		c.Realtime.Path = "/ws"
	}
	if c.Realtime.WriteTimeout <= 0 {
		c.Realtime.WriteTimeout = 10 * time.Second
	}
	if c.Realtime.ReadTimeout <= 0 {
		c.Realtime.ReadTimeout = 60 * time.Second
	}
	if c.Realtime.PingInterval <= 0 || c.Realtime.PingInterval >= c.Realtime.ReadTimeout {
		c.Realtime.PingInterval = c.Realtime.ReadTimeout * 9 / 10
	}
	if c.Realtime.MaxMessageSize <= 0 {
		c.Realtime.MaxMessageSize = 4096
	}
	if c.Realtime.SendBuffer <= 0 {
		c.Realtime.SendBuffer = 64
	}
	if c.EventBus.Driver == "" {
		c.EventBus.Driver = "local"
	}
	if c.EventBus.Partitions <= 0 {
		c.EventBus.Partitions = 3
	}
}

// applyEnv 는 비밀값이나 배포 환경마다 바뀌는 값을 환경변수로 덮어쓴다.
func (c *AppConfig) applyEnv() {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Storage.MongoURI = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("EVENTBUS_DRIVER"); v != "" {
		c.EventBus.Driver = v
	}
	if v := os.Getenv("HTTP_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.MaxConnections = n
		}
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		c.Server.CORSAllowedOrigins = strings.Split(v, ",")
	}
}

// Validate 는 지원하지 않는 드라이버 조합을 거부한다.
func (c AppConfig) Validate() error {
	switch c.Storage.Driver {
	case "mongo", "sqlite":
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}
	switch c.EventBus.Driver {
	case "local", "kafka":
	default:
		return fmt.Errorf("unsupported eventbus driver: %s", c.EventBus.Driver)
	}
	if c.Generation.Provider != "google" {
		return fmt.Errorf("unsupported LLM provider: %s", c.Generation.Provider)
	}
	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("server.max_connections must not be negative: %d", c.Server.MaxConnections)
	}
	return nil
}

func SetConfig(c AppConfig) {
	mu.Lock()
	config = &c
	mu.Unlock()
}

func GetConfig() AppConfig {
	mu.RLock()
	c := config
	mu.RUnlock()
	if c == nil {
		InitApp()
		mu.RLock()
		c = config
		mu.RUnlock()
	}
	return *c
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return cwd
}
