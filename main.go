package main

import "github.com/KaramelBytes/adcorr-cli/cmd"

func main() {
	cmd.Execute()
}
