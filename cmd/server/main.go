package main

import (
	"context"
	"log"

	"github.com/dmkov83/enerhobot/internal/server"
	"github.com/dmkov83/enerhobot/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
