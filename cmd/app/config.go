package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override the config file.
const EnvPrefix = "ROOMGYM_"

type Config struct {
	DeviceID    string            `koanf:"device_id"`
	Log         LogConfig         `koanf:"log"`
	Controllers ControllersConfig `koanf:"controllers"`

	Room     RoomConfig     `koanf:"room"`
	Radiator RadiatorConfig `koanf:"radiator"`
	Thermal  ThermalConfig  `koanf:"thermal"`
	Episode  EpisodeConfig  `koanf:"episode"`
	Ambient  AmbientConfig  `koanf:"ambient"`

	Harness   HarnessConfig   `koanf:"harness"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `koanf:"format"` // "text" | "json"
}

type ControllersConfig struct {
	HTTP   HTTPConfig   `koanf:"http"`
	MQTT   MQTTConfig   `koanf:"mqtt"`
	MODBUS ModbusConfig `koanf:"modbus"`
}

type HTTPConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

type MQTTConfig struct {
	Enabled         bool          `koanf:"enabled"`
	BrokerURL       string        `koanf:"broker_url"`
	ClientID        string        `koanf:"client_id"`
	BaseTopic       string        `koanf:"base_topic"`
	QoS             byte          `koanf:"qos"`
	RetainSnapshot  bool          `koanf:"retain_snapshot"`
	PublishInterval time.Duration `koanf:"publish_interval"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
}

type ModbusConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	UnitID  byte   `koanf:"unit_id"`
}

type RoomConfig struct {
	Length      float64 `koanf:"length"` // m
	Width       float64 `koanf:"width"`  // m
	Height      float64 `koanf:"height"` // m
	ComfortLow  float64 `koanf:"comfort_low"`
	ComfortHigh float64 `koanf:"comfort_high"`
}

type RadiatorConfig struct {
	Length         float64       `koanf:"length"` // m
	Height         float64       `koanf:"height"` // m
	RampTime       time.Duration `koanf:"ramp_time"`
	CooldownFactor float64       `koanf:"cooldown_factor"`
}

type ThermalConfig struct {
	TransferCoefficient float64 `koanf:"transfer_coefficient"` // kW/m²°C
	AirDensity          float64 `koanf:"air_density"`          // kg/m³
	SpecificHeat        float64 `koanf:"specific_heat"`        // kJ/kg°C
}

type EpisodeConfig struct {
	Step           time.Duration `koanf:"step"`
	RewardInterval time.Duration `koanf:"reward_interval"`
	Horizon        time.Duration `koanf:"horizon"`
	// Start is the simulated epoch at reset when no weather file is used.
	Start       int64 `koanf:"start"`
	ResetSpread int   `koanf:"reset_spread"`
	// Seed for the reset draw; 0 seeds from the wall clock.
	Seed uint64 `koanf:"seed"`
}

type AmbientConfig struct {
	// File is a JSON or YAML weather file; empty means a constant outdoor temperature.
	File string `koanf:"file"`
	// Date selects one day of the file. Empty uses the whole series.
	Date        string  `koanf:"date"`
	Temperature float64 `koanf:"temperature"`
}

type HarnessConfig struct {
	Episodes int    `koanf:"episodes"`
	Policy   string `koanf:"policy"` // "constant" | "random" | "hysteresis"
	// Action is the constant policy's setting and the hysteresis heating setting.
	Action            int     `koanf:"action"`
	Seed              uint64  `koanf:"seed"`
	TriggerHysteresis float64 `koanf:"trigger_hysteresis"`
	TargetHysteresis  float64 `koanf:"target_hysteresis"`
	TraceFile         string  `koanf:"trace_file"`
}

type TelemetryConfig struct {
	Kafka KafkaConfig `koanf:"kafka"`
}

type KafkaConfig struct {
	Enabled bool     `koanf:"enabled"`
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	// Addr serves /metrics in run mode, and in serve mode when the HTTP
	// controller is off. Otherwise metrics live on the HTTP controller.
	Addr string `koanf:"addr"`
}

func DefaultConfig() Config {
	return Config{
		DeviceID: "default",
		Log:      LogConfig{Level: "info", Format: "text"},
		Controllers: ControllersConfig{
			HTTP: HTTPConfig{Enabled: true, Addr: ":8080"},
			MQTT: MQTTConfig{
				BrokerURL:       "tcp://localhost:1883",
				PublishInterval: 1 * time.Second,
			},
			MODBUS: ModbusConfig{Addr: "127.0.0.1:1502", UnitID: 1},
		},
		Room: RoomConfig{Length: 5, Width: 5, Height: 5, ComfortLow: 19, ComfortHigh: 25},
		Radiator: RadiatorConfig{
			Length:         1,
			Height:         0.5,
			RampTime:       40 * time.Minute,
			CooldownFactor: -0.5,
		},
		Thermal: ThermalConfig{TransferCoefficient: 0.003, AirDensity: 1.25, SpecificHeat: 1.005},
		Episode: EpisodeConfig{
			Step:           time.Second,
			RewardInterval: 5 * time.Minute,
			Horizon:        24 * time.Hour,
			ResetSpread:    3,
		},
		Harness: HarnessConfig{
			Episodes:          1,
			Policy:            "hysteresis",
			Action:            5,
			TriggerHysteresis: 1,
			TargetHysteresis:  0.5,
		},
		Telemetry: TelemetryConfig{
			Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "roomgym.steps"},
		},
		Metrics: MetricsConfig{Enabled: true, Addr: ":9100"},
	}
}

// LoadConfig layers defaults, the config file at path and ROOMGYM_* environment
// variables. A missing file leaves the defaults in place.
func LoadConfig(path string) (Config, error) {
	return loadConfig(path, os.Environ)
}

func loadConfig(path string, environ func() []string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := loadFile(k, path); err != nil {
			return Config{}, err
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = envKeyTransform(strings.TrimPrefix(key, EnvPrefix))
			if strings.HasSuffix(key, ".brokers") {
				return key, strings.Split(value, ",")
			}
			return key, value
		},
		EnvironFunc: environ,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Config file missing → use defaults
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config extension %q", ext)
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Sections whose first key segment is a single word; the rest of the
// variable name is the field.
var envSections = map[string]bool{
	"log":      true,
	"room":     true,
	"radiator": true,
	"thermal":  true,
	"episode":  true,
	"ambient":  true,
	"harness":  true,
	"metrics":  true,
}

// Sections that nest one level deeper: CONTROLLERS_<CTRL>_<FIELD>.
var envNestedSections = map[string]bool{
	"controllers": true,
	"telemetry":   true,
}

// envKeyTransform maps an environment variable name, prefix already removed,
// to a koanf key path, e.g. CONTROLLERS_HTTP_ADDR → controllers.http.addr and
// EPISODE_RESET_SPREAD → episode.reset_spread.
func envKeyTransform(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	if k == "" {
		return ""
	}
	parts := strings.Split(k, "_")

	if envNestedSections[parts[0]] {
		if len(parts) < 3 {
			return strings.Join(parts, "_")
		}
		return parts[0] + "." + parts[1] + "." + strings.Join(parts[2:], "_")
	}
	if envSections[parts[0]] && len(parts) > 1 {
		return parts[0] + "." + strings.Join(parts[1:], "_")
	}
	return k
}
