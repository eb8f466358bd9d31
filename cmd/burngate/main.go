package main

import "github.com/landgame-labs/burngate/internal/cli"

func main() {
	cli.Execute()
}
