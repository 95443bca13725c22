package config

import (
	"github.com/MazzeLabs/go-mazze/infrastructure/logger"
)

var log = logger.RegisterSubSystem("CNFG")
