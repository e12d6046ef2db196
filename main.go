package main

import "github.com/lorenzo-villa-hub/sbatcher/cmd"

func main() {
	cmd.Execute()
}
