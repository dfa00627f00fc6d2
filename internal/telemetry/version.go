package telemetry

// Version is reported as the service version and by the version command.
var Version = "0.1.0"
