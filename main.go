package main

import (
	"example.com/backstage/services/farm/cmd"
)

func main() {
	cmd.Execute()
}
