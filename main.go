package main

import "github.com/KaramelBytes/casedash/cmd"

func main() {
	cmd.Execute()
}
