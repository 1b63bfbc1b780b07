package service

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger(t *testing.T) *logrus.Logger {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}
