package logging

import "go.uber.org/zap"

// GetSugaredLogger builds the logger shared by all gateway components.
func GetSugaredLogger() *zap.SugaredLogger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("cannot initialize zap")
	}
	sl := logger.Sugar()

	return sl
}
