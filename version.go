package main

// Version is the nextversion CLI version, stamped at release time.
var Version = "0.1.0"
