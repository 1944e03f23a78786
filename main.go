package main

import "github.com/KaramelBytes/sopdash/cmd"

func main() {
	cmd.Execute()
}
