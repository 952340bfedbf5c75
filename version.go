package parley

// Version is the library release version, stamped by the release workflow.
var Version = "0.1.0"
