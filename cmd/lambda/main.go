package main

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/civicarchive/councilcast/internal"
)

func main() {
	config, err := internal.LoadConfig(os.Getenv("COUNCILCAST_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.ApplyLogLevel()

	app, err := internal.New(config)
	if err != nil {
		log.Fatalf("Failed to initialise: %v", err)
	}

	h := &handler{runner: app, secret: config.API.CronSecret}
	lambda.Start(h.Handle)
}
