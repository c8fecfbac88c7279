package main

import (
	"FileCollab/internal/app"
	"context"
	"flag"
	"log"
)

func main() {
	configPath := flag.String("config", "", "path to an optional config file")
	flag.Parse()

	ctx := context.Background()
	app, err := app.InitApp(ctx, *configPath)
	if err != nil {
		log.Fatal("can't init app ", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
