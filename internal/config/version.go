package config

// Version is the antennadesk binary version.
// Set at build time via: -ldflags "-X github.com/sliea/antennadesk/internal/config.Version=<tag>"
var Version = "dev"
