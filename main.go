package main

import "github.com/markb/bcon/cmd"

func main() {
	cmd.Execute()
}
