package main

import "github.com/twiced-technology-gmbh/checkboard/cmd"

func main() {
	cmd.Execute()
}
