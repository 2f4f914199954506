package main

import "github.com/davarch/cctray-watcher/cmd/cctray-watcher/cli"

func main() {
	cli.Execute()
}
