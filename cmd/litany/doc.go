// Command litany is the client CLI for the litany daemon. It talks to the
// daemon's HTTP API to start pipeline processes and inspect their progress.
package main
