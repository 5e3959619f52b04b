package main

import "github.com/frahmantamala/fault-tracker/cmd"

func main() {
	cmd.Execute()
}
