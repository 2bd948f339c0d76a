package main

import "github.com/tutu-network/gossipd/internal/cli"

func main() {
	cli.Execute()
}
