package main

import "libhub/cmd/cli/command"

func main() {
	command.Execute()
}
