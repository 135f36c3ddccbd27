package clientmqtt

type MQTTConf struct {
	ClientID    string // ClientID - уникальное имя клиента для брокеров.
	Schema      string // Schema - тип подключения.
	Host        string // Host - адрес MQTT сервера.
	Port        string // Port - порт MQTT сервера.
	User        string // User - логин для подключения к MQTT серверу.
	Password    string // Password - пароль для подключения к MQTT серверу.
	Qos         byte   // Qos - качество обслуживания.
	TopicPrefix string // TopicPrefix - корень дерева топиков.
}

// EffectPayload is the JSON body of <prefix>/channel/<n>/set.
type EffectPayload struct {
	Mode      string   `json:"mode"`
	Color     string   `json:"color,omitempty"`
	Colors    []string `json:"colors,omitempty"`
	Speed     *int     `json:"speed,omitempty"`
	Size      *int     `json:"size,omitempty"`
	Moving    bool     `json:"moving,omitempty"`
	Backwards bool     `json:"backwards,omitempty"`
	Custom    bool     `json:"custom,omitempty"`
}

// ErrorPayload is published on <prefix>/error when a command fails.
type ErrorPayload struct {
	Command string `json:"command"`
	Error   string `json:"error"`
}
