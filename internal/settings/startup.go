package settings

import (
	"go.uber.org/zap"

	"github.com/eugenenazirov/stac-search-settings/internal/metrics"
)

// DirectResponseWarning is logged at startup when direct response is active.
const DirectResponseWarning = "ENABLE_DIRECT_RESPONSE is true: all request processing dependencies (including authentication) are disabled for all routes"

// WarnDirectResponse logs DirectResponseWarning once if any of views has
// direct response enabled and reports whether it did. It is advisory only:
// the flag is still honoured. The process entry point calls it once after
// constructing its settings.
func WarnDirectResponse(logger *zap.Logger, views ...View) bool {
	if logger == nil {
		logger = zap.NewNop()
	}

	var flavors []string
	for _, v := range views {
		if v != nil && v.EnableDirectResponse() {
			flavors = append(flavors, string(v.Flavor()))
		}
	}

	metrics.SetDirectResponse(len(flavors) > 0)
	if len(flavors) == 0 {
		return false
	}

	logger.Warn(DirectResponseWarning, zap.Strings("flavors", flavors))
	return true
}
