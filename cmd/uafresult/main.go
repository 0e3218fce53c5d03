package main

import "github.com/openswoop/uafresult/cmd"

func main() {
	cmd.Execute()
}
