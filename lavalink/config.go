package lavalink

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type Configuration struct {
	LogLevel          log.Level     `yaml:"LogLevel"`
	Host              string        `yaml:"Host" validate:"required"`
	Port              int           `yaml:"Port" validate:"required,min=1,max=65535"`
	Password          string        `yaml:"Password" validate:"required"`
	Secure            bool          `yaml:"Secure"`
	ClientName        string        `yaml:"ClientName"`
	ReconnectTries    int           `yaml:"ReconnectTries" validate:"min=0"`
	ReconnectInterval time.Duration `yaml:"ReconnectInterval"`
}

// restUrl returns the base url of the node's http api
func (config *Configuration) restUrl() string {
	scheme := "http"
	if config.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, config.Host, config.Port)
}

// websocketUrl returns the url of the node's event websocket
func (config *Configuration) websocketUrl() string {
	scheme := "ws"
	if config.Secure {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d%s", scheme, config.Host, config.Port, websocketEndpoint)
}

func (config *Configuration) clientName() string {
	if len(config.ClientName) == 0 {
		return "lavalink-music-bot"
	}
	return config.ClientName
}

func (config *Configuration) reconnectInterval() time.Duration {
	if config.ReconnectInterval <= 0 {
		return 5 * time.Second
	}
	return config.ReconnectInterval
}
