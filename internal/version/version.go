package version

// Version is the semantic version of pantheonctl. Overridden at build time
// via -ldflags.
var Version = "0.1.0"
