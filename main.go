package main

import (
	"github.com/yuri-rage/pit-ninja/cmd"
)

func main() {
	cmd.Execute()
}
