package main

import (
	"github.com/hybridchain/hcd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("HCDC")
