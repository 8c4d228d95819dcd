package main

import (
	"log"

	"github.com/campuslink/identity/app"
)

func main() {
	identity, err := app.New().
		WithAutoConfig().
		WithMail().
		WithCleanupWorker().
		WithOpenAPI().
		Build()
	if err != nil {
		log.Fatalf("failed to build identity service: %v", err)
	}

	identity.Run()
}
