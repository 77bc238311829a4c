// Command diffuzzer is the entry point for the differential POSIX
// filesystem fuzzer: see package cmd for the five subcommands.
package main

import "github.com/diffuzzer/diffuzzer/cmd"

func main() {
	cmd.Execute()
}
