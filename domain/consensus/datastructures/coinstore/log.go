package coinstore

import "github.com/hybridchain/hcd/infrastructure/logger"

var log = logger.RegisterSubSystem("CSTR")
