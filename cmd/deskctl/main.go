// Command deskctl is the operator tool of the compartment desk: coupon
// schedules and trade economics from the command line, bearer tokens for desk
// users and on-demand runs of the scheduled jobs.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
