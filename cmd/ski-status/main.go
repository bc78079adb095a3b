package main

import "github.com/pfrederiksen/ski-status/internal/cli"

func main() {
	cli.Execute()
}
