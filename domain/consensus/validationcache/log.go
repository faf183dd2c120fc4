package validationcache

import (
	"github.com/kaspanet/utxocore/infrastructure/logger"
)

var log = logger.RegisterSubSystem("VCCH")
