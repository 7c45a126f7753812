package main

import "songhouse/cmd"

func main() {
	cmd.Execute()
}
