package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/adnsv/tsplay/config"
	"github.com/adnsv/tsplay/publish"
	"github.com/adnsv/tsplay/version"
	cli "github.com/jawher/mow.cli"
)

func main() {
	app := cli.App("deploy", "Publish the site assets to the hosting branch")
	app.Version("v version", version.String())

	app.Action = func() {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		cfg, err := config.Load(config.DefaultPath)
		if err != nil {
			log.Fatal(err)
		}
		if err = publish.FromConfig(cfg).Deploy(ctx); err != nil {
			log.Fatal(err)
		}
		log.Printf("mission accomplished\n")
	}

	app.Run(os.Args)
}
