package main

import "github.com/nsxzhou1114/gram-api/cmd"

func main() {
	cmd.Execute()
}
