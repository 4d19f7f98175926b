package rigid2d

import "go.uber.org/zap"

// logger backs the package's debug-only diagnostics. It is nil by default so
// the happy path never pays for logging, matching the silent-by-default
// posture the rest of this package's error handling follows.
var logger *zap.Logger

// SetLogger installs l as the destination for this package's debug
// diagnostics: block-solver LCP fallbacks, TOI search failures, skipped
// zero-mass contact points, and contact points the position solvers skip
// for an invalid separation. Pass nil to go back to silence.
func SetLogger(l *zap.Logger) {
	logger = l
}

func debugLog(msg string, fields ...zap.Field) {
	if logger == nil {
		return
	}
	logger.Debug(msg, fields...)
}
