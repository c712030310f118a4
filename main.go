package main

import (
	"log"

	"github.com/anoixa/files-manager/cmd"
	"github.com/anoixa/files-manager/config"
)

func main() {
	log.Printf("files manager %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
