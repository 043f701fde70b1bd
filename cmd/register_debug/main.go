// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"
	"net/http"

	"github.com/relabs-tech/baro_computer/internal/app"
	"github.com/relabs-tech/baro_computer/internal/config"
	"github.com/relabs-tech/baro_computer/internal/sensors"
)

func main() {
	log.Println("starting DPS310 register debug tool (standalone)")

	if err := config.InitGlobal("baro_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	log.Println("Initializing barometer manager...")
	mgr := sensors.GetBaroManager()
	if err := mgr.Init(); err != nil {
		log.Printf("Warning: barometer initialization had issues: %v", err)
		log.Println("Continuing anyway - the sensor may come up after a reinit")
	}

	if mgr.IsPrimaryAvailable() {
		log.Println("Primary sensor available")
	} else {
		log.Println("Warning: primary sensor not available")
	}

	if mgr.IsSecondaryAvailable() {
		log.Println("Secondary sensor available")
	} else {
		log.Println("Secondary sensor not fitted")
	}

	http.HandleFunc("/ws", app.HandleRegisterDebugWS)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "web/register_debug.html")
	})

	addr := ":8081"
	log.Printf("Register debug tool listening on %s", addr)
	log.Printf("Open http://localhost:8081 in your browser")
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
