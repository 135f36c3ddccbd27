package config

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Config структура конфигурации.
type Config struct {
	Logger LogConf    // Logger - конфигурация регистратора.
	Serial SerialConf // Serial - параметры последовательного порта.
	Device DeviceConf // Device - тайминги обмена с контроллером.
	MQTT   MQTTConf   // MQTT - конфигурация MQTT клиента.
	ArtNet ArtNetConf // ArtNet - зеркалирование состояния в Art-Net.
	Queue  QueueConf  // Queue - очередь команд.
}

// LogConf структура конфигурации.
type LogConf struct {
	Level  string `toml:"log-level"`  // Level - уровень логирования.
	Format string `toml:"log-format"` // Format - text или json.
}

// SerialConf describes how the controller is reached.
type SerialConf struct {
	Port          string `toml:"port"`            // Port - имя порта, пусто = поиск по VID/PID.
	Baud          int    `toml:"baud"`            // Baud - скорость порта.
	ReadTimeoutMs int    `toml:"read-timeout-ms"` // ReadTimeoutMs - таймаут одного чтения.
}

// DeviceConf holds the handshake timings.
type DeviceConf struct {
	TimeoutMs         int `toml:"timeout-ms"`
	PollIntervalMs    int `toml:"poll-interval-ms"`
	SettleMs          int `toml:"settle-ms"`
	RestoreIntervalMs int `toml:"restore-interval-ms"`
}

// MQTTConf структура конфигурации.
type MQTTConf struct {
	ClientID    string `toml:"clientID"`     // ClientID - имя клиента.
	Host        string `toml:"server"`       // Host - адрес MQTT сервера.
	Port        string `toml:"port"`         // Port - порт MQTT сервера.
	User        string `toml:"user"`         // User - логин для подключения к MQTT серверу.
	Password    string `toml:"password"`     // Password - пароль для подключения к MQTT серверу.
	Qos         byte   `toml:"qos"`          // Qos - качество обслуживания.
	TopicPrefix string `toml:"topic-prefix"` // TopicPrefix - корень дерева топиков.
}

// ArtNetConf структура конфигурации.
type ArtNetConf struct {
	Enabled      bool   `toml:"enabled"`
	CIDR         string `toml:"cidr"`          // CIDR - сеть, в которой ищется интерфейс Art-Net.
	Universe     uint16 `toml:"universe"`      // Universe: старший байт - SubUni, младший байт - Net.
	StartChannel uint16 `toml:"start-channel"` // StartChannel - первый DMX канал (0-511).
	MaxFPS       int    `toml:"max-fps"`
}

// QueueConf структура конфигурации.
type QueueConf struct {
	Size int `toml:"size"`
}

// NewConfig конструктор.
func NewConfig(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	return &Config{
		Logger: LogConf{Level: "info"},
		Serial: SerialConf{
			Baud:          256000,
			ReadTimeoutMs: 10,
		},
		Device: DeviceConf{
			TimeoutMs:         1000,
			PollIntervalMs:    10,
			SettleMs:          10,
			RestoreIntervalMs: 10,
		},
		MQTT: MQTTConf{
			ClientID:    "hueplus2mqtt",
			Host:        "localhost",
			Port:        "1883",
			TopicPrefix: "hueplus",
		},
		ArtNet: ArtNetConf{
			CIDR:   "192.168.6.0/24",
			MaxFPS: 1,
		},
		Queue: QueueConf{Size: 1},
	}
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (d DeviceConf) Timeout() time.Duration         { return ms(d.TimeoutMs) }
func (d DeviceConf) PollInterval() time.Duration    { return ms(d.PollIntervalMs) }
func (d DeviceConf) Settle() time.Duration          { return ms(d.SettleMs) }
func (d DeviceConf) RestoreInterval() time.Duration { return ms(d.RestoreIntervalMs) }
func (s SerialConf) ReadTimeout() time.Duration     { return ms(s.ReadTimeoutMs) }
