package version

// Current is the application version. It defaults to "dev" and is
// overwritten at build time via -ldflags.
var Current = "dev"

const AppName = "finops-scan"
