package main

import "github.com/kozaktomas/classroom-monitor/cmd"

func main() {
	cmd.Execute()
}
