package main

import "github.com/lukman83/components-radar/cmd"

func main() {
	cmd.Execute()
}
