package common

import (
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const logFileName = "behat-helpers.log"

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.Mutex
)

func writerConfig(writerType models.LogWriterType) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       writerType,
		TimeFormat: "15:04:05",
		TextOutput: true,
	}
}

// GetLogger returns the logger set by InitLogger, or a console logger
func GetLogger() arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(writerConfig(models.LogWriterTypeConsole))
	}
	return globalLogger
}

// InitLogger builds the step logger from [logging] and makes it the global one.
// An unusable logs directory degrades to console output.
func InitLogger(config *Config) arbor.ILogger {
	logger := arbor.NewLogger()
	outputs := config.Logging.Output

	console := slices.Contains(outputs, "stdout") || slices.Contains(outputs, "console")
	var fileErr error
	if slices.Contains(outputs, "file") {
		if fileErr = os.MkdirAll(config.Logging.Dir, 0755); fileErr != nil {
			console = true
		} else {
			file := writerConfig(models.LogWriterTypeFile)
			file.FileName = filepath.Join(config.Logging.Dir, logFileName)
			file.MaxSize = 10 * 1024 * 1024
			file.MaxBackups = 3
			logger = logger.WithFileWriter(file)
		}
	}
	if console {
		logger = logger.WithConsoleWriter(writerConfig(models.LogWriterTypeConsole))
	}
	logger = logger.WithLevelFromString(config.Logging.Level)
	if fileErr != nil {
		logger.Warn().Err(fileErr).Str("dir", config.Logging.Dir).Msg("Log file disabled")
	}

	loggerMutex.Lock()
	globalLogger = logger
	loggerMutex.Unlock()
	return logger
}
