package deploymentmanager

import (
	"github.com/hybridchain/hcd/infrastructure/logger"
)

var log = logger.RegisterSubSystem("DPLY")
