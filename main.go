package main

import (
	"os"

	"github.com/Chative-core-poc-v1/userdesk/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
