package iclient

// Version is the published client version.
// 0.3.0: Breaking - invalid input returns ConfigError instead of being dropped silently.
// 0.2.0: Add security token issuing (auth package) and the iserverctl CLI.
const Version = "0.3.0"
