package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/config.yaml"

// Режимы отправки данных участника.
const (
	// SubmitModeRoute отправляет данные на маршрут сервера (/save).
	SubmitModeRoute = "route"
	// SubmitModeScript отправляет данные на фиксированный относительный путь скрипта.
	SubmitModeScript = "script"
)

// Config объединяет все аспекты настройки приложения.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Timeouts   TimeoutConfig    `yaml:"timeouts"`
	Logging    LoggingConfig    `yaml:"logging"`
	Swagger    SwaggerConfig    `yaml:"swagger"`
	LoadTests  LoadTestConfig   `yaml:"load_tests"`
	Stimuli    StimuliConfig    `yaml:"stimuli"`
	Submit     SubmitConfig     `yaml:"submit"`
	Experiment ExperimentConfig `yaml:"experiment"`
}

// HTTPConfig описывает HTTP-сервер.
type HTTPConfig struct {
	Port         string        `yaml:"port" env:"HTTP_PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT"`
	// AllowedOrigins - источники, которым разрешены CORS-запросы; пусто означает любой.
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`
}

// DatabaseConfig описывает подключение к PostgreSQL.
type DatabaseConfig struct {
	URL             string        `yaml:"url" env:"DATABASE_URL"`
	MigrationsPath  string        `yaml:"migrations_path" env:"MIGRATIONS_PATH"`
	MaxConnections  int32         `yaml:"max_connections" env:"DB_MAX_CONNECTIONS"`
	MinConnections  int32         `yaml:"min_connections" env:"DB_MIN_CONNECTIONS"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME"`
}

// TimeoutConfig содержит таймауты разного уровня.
type TimeoutConfig struct {
	Operation     time.Duration `yaml:"operation" env:"OPERATION_TIMEOUT"`
	LongOperation time.Duration `yaml:"long_operation" env:"LONG_OPERATION_TIMEOUT"`
	Shutdown      time.Duration `yaml:"shutdown" env:"SHUTDOWN_TIMEOUT"`
}

// LoggingConfig описывает формат и место логов.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Output string `yaml:"output" env:"LOG_OUTPUT"`
}

// SwaggerConfig задаёт путь до OpenAPI-спецификации.
type SwaggerConfig struct {
	SpecPath string `yaml:"spec_path" env:"SWAGGER_SPEC_PATH"`
}

// LoadTestConfig хранит параметры нагрузочного тестирования.
type LoadTestConfig struct {
	TargetsPath string `yaml:"targets_path" env:"LOAD_TEST_TARGETS"`
}

// StimuliConfig описывает, откуда загружать списки стимулов.
type StimuliConfig struct {
	// Dir содержит CSV-файлы вида likert_<N>.csv.
	Dir string `yaml:"dir" env:"STIMULI_DIR"`
	// Epsilon добавляется к счётчику списка при выдаче и снимается при завершении.
	Epsilon float64 `yaml:"epsilon" env:"STIMULI_EPSILON"`
}

// SubmitConfig описывает, куда клиент отправляет собранные ответы.
type SubmitConfig struct {
	Mode       string `yaml:"mode" env:"SUBMIT_MODE"`
	BaseURL    string `yaml:"base_url" env:"SUBMIT_BASE_URL"`
	Route      string `yaml:"route" env:"SUBMIT_ROUTE"`
	ScriptPath string `yaml:"script_path" env:"SUBMIT_SCRIPT_PATH"`
}

// ExperimentConfig хранит константы эксперимента, которые читает оркестратор испытаний.
type ExperimentConfig struct {
	TrialsPerBlock             int           `yaml:"trials_per_block" env:"EXP_TRIALS_PER_BLOCK"`
	StimulusDuration           time.Duration `yaml:"stimulus_duration" env:"EXP_STIMULUS_DURATION"`
	FixationDuration           time.Duration `yaml:"fixation_duration" env:"EXP_FIXATION_DURATION"`
	CompletionCode             string        `yaml:"completion_code" env:"EXP_COMPLETION_CODE"`
	NBackBase                  int           `yaml:"n_back_base" env:"EXP_N_BACK_BASE"`
	VigilanceRepeatBackRange   [2]int        `yaml:"vigilance_repeat_back_range"`
	VigilanceFrequency         float64       `yaml:"vigilance_frequency" env:"EXP_VIGILANCE_FREQUENCY"`
	RepeatListShuffleBlockSize int           `yaml:"repeat_list_shuffle_block_size" env:"EXP_SHUFFLE_BLOCK_SIZE"`
	BreaksPerExp               int           `yaml:"breaks_per_exp" env:"EXP_BREAKS_PER_EXP"`
	BreakMaxLen                time.Duration `yaml:"break_max_len" env:"EXP_BREAK_MAX_LEN"`
	NumLists                   int           `yaml:"num_lists" env:"EXP_NUM_LISTS"`
	DebugMode                  bool          `yaml:"debug_mode" env:"EXP_DEBUG_MODE"`
}

// MustLoad загружает конфигурацию из YAML + ENV и паникует при ошибке.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load загружает конфигурацию, отдавая предпочтение пути из CONFIG_PATH.
func Load() (Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg := Default()
	if err := readYAML(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env vars: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func readYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config yaml: %w", err)
	}
	return nil
}

// normalize устанавливает значения по умолчанию для всех полей конфигурации, если они не заданы.
func (c *Config) normalize() {
	// HTTP настройки
	if c.HTTP.Port == "" {
		c.HTTP.Port = "8770"
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 5 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 5 * time.Second
	}
	if c.HTTP.IdleTimeout <= 0 {
		c.HTTP.IdleTimeout = 5 * time.Minute
	}

	// Database настройки
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "migrations"
	}
	// Таймауты операций
	if c.Timeouts.Operation <= 0 {
		c.Timeouts.Operation = 30 * time.Second
	}
	if c.Timeouts.LongOperation <= 0 {
		c.Timeouts.LongOperation = 60 * time.Second
	}
	if c.Timeouts.Shutdown <= 0 {
		c.Timeouts.Shutdown = 10 * time.Second
	}
	// Логирование
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	// Swagger
	if c.Swagger.SpecPath == "" {
		c.Swagger.SpecPath = "openapi.yml"
	}
}

// Default возвращает значения, которые YAML и переменные окружения переопределяют.
// Явный ноль в файле сохраняется и проверяется в Validate.
func Default() Config {
	return Config{
		Stimuli: StimuliConfig{
			Dir:     "stimuli",
			Epsilon: 1e-3,
		},
		Submit: SubmitConfig{
			Mode:       SubmitModeScript,
			Route:      "/save",
			ScriptPath: "../static/write_data.php",
		},
		Experiment: ExperimentConfig{
			TrialsPerBlock:             85,
			StimulusDuration:           2000 * time.Millisecond,
			FixationDuration:           1400 * time.Millisecond,
			NBackBase:                  20,
			VigilanceRepeatBackRange:   [2]int{1, 7},
			VigilanceFrequency:         0.25,
			RepeatListShuffleBlockSize: 2,
			BreaksPerExp:               12,
			BreakMaxLen:                180 * time.Second,
			NumLists:                   12,
		},
	}
}

// Validate проверяет согласованность значений после применения умолчаний.
func (c Config) Validate() error {
	switch c.Submit.Mode {
	case SubmitModeRoute, SubmitModeScript:
	default:
		return fmt.Errorf("unknown submit mode %q", c.Submit.Mode)
	}
	if c.Stimuli.Epsilon <= 0 || c.Stimuli.Epsilon >= 1 {
		return fmt.Errorf("stimuli epsilon must be within (0, 1), got %v", c.Stimuli.Epsilon)
	}
	if !strings.HasPrefix(c.Submit.Route, "/") {
		return fmt.Errorf("submit route must start with /, got %q", c.Submit.Route)
	}
	script, err := url.Parse(c.Submit.ScriptPath)
	if err != nil || script.Scheme != "" || script.Host != "" || script.Path == "" {
		return fmt.Errorf("submit script path must be a path on this service, got %q", c.Submit.ScriptPath)
	}
	return c.Experiment.Validate()
}

// Validate проверяет диапазоны констант эксперимента.
func (e ExperimentConfig) Validate() error {
	if e.VigilanceFrequency < 0 || e.VigilanceFrequency > 1 {
		return fmt.Errorf("vigilance frequency must be within [0, 1], got %v", e.VigilanceFrequency)
	}
	lo, hi := e.VigilanceRepeatBackRange[0], e.VigilanceRepeatBackRange[1]
	if lo < 0 || lo > hi {
		return fmt.Errorf("invalid vigilance repeat back range [%d, %d]", lo, hi)
	}
	if e.TrialsPerBlock <= 0 || e.NumLists <= 0 || e.RepeatListShuffleBlockSize <= 0 {
		return errors.New("block, list and shuffle block sizes must be positive")
	}
	if e.BreaksPerExp < 0 || e.NBackBase < 0 {
		return fmt.Errorf("breaks (%d) and n-back base (%d) must not be negative", e.BreaksPerExp, e.NBackBase)
	}
	if e.StimulusDuration <= 0 || e.FixationDuration <= 0 || e.BreakMaxLen < 0 {
		return errors.New("stimulus and fixation durations must be positive, break length not negative")
	}
	return nil
}
