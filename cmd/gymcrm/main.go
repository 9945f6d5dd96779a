// Command gymcrm runs the membership API, the notification worker and the
// scheduled expiry jobs, and carries the database maintenance commands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
