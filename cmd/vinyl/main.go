package main

import "github.com/mcoot/vinyltrader/internal/cli"

func main() {
	cli.Execute()
}
