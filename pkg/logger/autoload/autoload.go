// Package autoload initialises the global logger from LOG_* variables when
// imported. The env file is loaded first, so values set there apply too.
package autoload

import (
	"github.com/rs/zerolog/log"

	configx "github.com/tanpawarit/record-agent/pkg/config"
	logx "github.com/tanpawarit/record-agent/pkg/logger"
)

func init() {
	conf, err := configx.New[logx.Config]("LOG")
	if err != nil {
		logx.Init()
		log.Warn().Err(err).Msg("invalid LOG_* configuration, using defaults")
		return
	}
	logx.Init(*conf)
}
