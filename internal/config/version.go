package config

// Version is the auditdesk binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/auditdesk/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
