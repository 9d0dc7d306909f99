package ldb

import "github.com/hybridchain/hcd/infrastructure/logger"

var log = logger.RegisterSubSystem("HCDB")
