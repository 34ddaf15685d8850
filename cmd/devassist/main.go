package main

import "devassist/internal/cli"

func main() {
	cli.Execute()
}
