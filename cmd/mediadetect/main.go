package main

import "mediadetect/internal/cli"

func main() {
	cli.Execute()
}
