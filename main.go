package main

import "github.com/xvierd/keeper/cmd"

func main() {
	cmd.Execute()
}
