package main

import "research-terminal/cmd"

func main() {
	cmd.Execute()
}
