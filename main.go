package main

import "github.com/itsjashshah/flowtag/commands"

func main() {
	commands.Execute()
}
