package main

import "github.com/oshokin/stage-deps/cmd/stage-deps/cmd"

func main() {
	cmd.Execute()
}
