package main

import "os"

// @title                       Console Rental API
// @version                     1.0
// @description                 Device timers, member deposits and the activity ledger of a console rental counter.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
