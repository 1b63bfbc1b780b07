package telemetry_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/auditdesk/internal/config"
	"github.com/persistorai/auditdesk/internal/telemetry"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	shutdown, err := telemetry.Setup(context.Background(), &config.Config{ServiceName: "auditdesk"}, log)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if err := shutdown(context.Background()); err != nil {
		t.Errorf("no-op shutdown returned %v", err)
	}
}
