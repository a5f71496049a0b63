package main

import "github.com/papapumpkin/scenery/cmd"

func main() {
	cmd.Execute()
}
