package main

import "github.com/communityambulance/mtrepair/internal/cli"

func main() {
	cli.Execute()
}
