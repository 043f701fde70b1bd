// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package main

import (
	"log"

	"github.com/relabs-tech/baro_computer/internal/app"
)

func main() {
	log.Println("starting baro-computer (sim console)")

	if err := app.RunSimConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
