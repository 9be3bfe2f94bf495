package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Глобальный логгер сервиса.
var (
	log *logrus.Logger
	Log *logrus.Entry
)

// init нужен для тестов, где точка входа - не main:
// без него обращение к Log падает с nil pointer dereference.
func init() {
	Init()
}

// Init настраивает глобальный логгер.
func Init() {
	log = logrus.New()
	log.SetOutput(os.Stderr)
	if os.Getenv("LOG_FORMAT") == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	Log = log.WithField("service", "timeline")
}
