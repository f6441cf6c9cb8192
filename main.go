package main

import "github.com/Tiliavir/tasker/cmd"

func main() {
	cmd.Execute()
}
