package main

import (
	"context"

	"github.com/RednibCoding/mudden-sub001/cmd/mud/command"
	"github.com/pixil98/go-log"
	"github.com/pixil98/go-service"
)

func main() {
	logger := log.NewLogger()

	app, err := service.NewApp(&command.Config{}, command.BuildWorkers)
	if err != nil {
		logger.WithError(err).Fatal("creating application")
	}

	if err := app.Run(context.Background()); err != nil {
		logger.WithError(err).Fatal("running application")
	}

	logger.Info("exiting")
}
