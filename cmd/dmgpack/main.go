package main

import "github.com/oshokin/dmgpack/cmd/dmgpack/cmd"

func main() {
	cmd.Execute()
}
