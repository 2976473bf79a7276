package main

import (
	_ "embed"

	"github.com/landonvance1/BookSharingApp/cmd"
)

//go:embed config/config.yaml
var c string

func main() {
	cmd.Execute(c)
}
