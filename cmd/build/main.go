package main

import (
	"log"
	"os"

	"github.com/adnsv/tsplay/bundle"
	"github.com/adnsv/tsplay/config"
	"github.com/adnsv/tsplay/version"
	cli "github.com/jawher/mow.cli"
)

func main() {
	app := cli.App("build", "Assemble the editor runtime bundle from the cached declaration files")
	app.Version("v version", version.String())

	app.Action = func() {
		cfg, err := config.Load(config.DefaultPath)
		if err != nil {
			log.Fatal(err)
		}

		err = bundle.Build(bundle.SpecFromConfig(cfg))
		if err != nil {
			log.Fatal(err)
		}

		if page, ok := bundle.PageFromConfig(cfg); ok {
			if err = page.Build(); err != nil {
				log.Fatal(err)
			}
		} else {
			log.Printf("page template is undefined, therefore, %s will not be generated\n", cfg.Page.Output)
		}
		log.Printf("mission accomplished\n")
	}

	app.Run(os.Args)
}
