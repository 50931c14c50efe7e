package main

import (
	"log"

	"support-desk/cmd"
	_ "support-desk/migrations"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
