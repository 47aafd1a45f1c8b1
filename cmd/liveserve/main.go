package main

import "github.com/jsherman999/liveserve/internal/cli"

func main() {
	cli.Main()
}
