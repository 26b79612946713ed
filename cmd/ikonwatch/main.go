package main

import "ikonwatch/cmd"

func main() {
	cmd.Execute()
}
