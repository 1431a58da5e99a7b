package main

import (
	"os"

	"github.com/imaginify/usersync/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
