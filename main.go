package main

import "github.com/Rorical/stepscope/cmd"

func main() {
	cmd.Execute()
}
