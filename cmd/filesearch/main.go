package main

import "github.com/emrgen/filesearch/cmd"

func main() {
	cmd.Execute()
}
