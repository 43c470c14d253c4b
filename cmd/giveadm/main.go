// Command giveadm administers the giveback database: accounts, sub-profiles,
// projects and monthly donation reports.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
