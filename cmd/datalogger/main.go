package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/baro_computer/internal/app"
	"github.com/relabs-tech/baro_computer/internal/config"
)

func main() {
	configPath := flag.String("config", "./baro_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting baro-computer datalogger (MQTT → sqlite)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDatalogger(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
