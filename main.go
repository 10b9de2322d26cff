package main

import "city-tours/cmd"

func main() {
	cmd.Execute()
}
