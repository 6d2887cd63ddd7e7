package main

import "github.com/jeamland/freebsd-build/cmd"

func main() {
	cmd.Execute()
}
