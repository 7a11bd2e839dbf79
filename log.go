package drover

// LogMaskVal hides sensitive data from log messages.
const LogMaskVal = "xxxxxx"
