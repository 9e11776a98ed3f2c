package main

import (
	"github.com/emrgen/filesearch/internal/config"
	"github.com/emrgen/filesearch/internal/server"
)

func main() {
	err := server.Start(config.Load())
	if err != nil {
		return
	}
}
