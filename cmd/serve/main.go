package main

import (
	"log"
	"net/http"
	"os"

	"github.com/adnsv/tsplay/config"
	"github.com/adnsv/tsplay/publish"
	"github.com/adnsv/tsplay/serve"
	"github.com/adnsv/tsplay/version"
	cli "github.com/jawher/mow.cli"
)

func main() {
	app := cli.App("serve", "Preview the site assets locally")
	app.Version("v version", version.String())

	app.Action = func() {
		cfg, err := config.Load(config.DefaultPath)
		if err != nil {
			log.Fatal(err)
		}

		m := publish.Manifest(cfg.Deploy.Assets)
		if err = m.Validate(cfg.Dir()); err != nil {
			log.Printf("[warning] %v\n", err)
		}

		log.Printf("serving on http://%s\n", cfg.Serve.Addr)
		log.Fatal(http.ListenAndServe(cfg.Serve.Addr, serve.Handler(cfg.Dir(), m)))
	}

	app.Run(os.Args)
}
