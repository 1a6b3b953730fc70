package main

import "github.com/pfrederiksen/fake-localstorage/internal/cli"

func main() {
	cli.Execute()
}
