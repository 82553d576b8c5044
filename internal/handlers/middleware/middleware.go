package middleware

import (
	"mcbarchive/config"

	logger "github.com/Bparsons0904/goLogger"
)

type Middleware struct {
	Config config.Config
	log    logger.Logger
}

func New(config config.Config) Middleware {
	log := logger.New("middleware")

	return Middleware{
		Config: config,
		log:    log,
	}
}
