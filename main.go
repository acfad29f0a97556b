package main

import "github.com/cmmoran/phptestgen/cmd"

func main() {
	cmd.Execute()
}
