package main

import "mapportal/cmd/cli/command"

func main() {
	command.Execute()
}
