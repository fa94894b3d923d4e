// Package main is the chalets-admin command line client.
package main

import "github.com/qrchalets/chalets/cmd/client/cmd"

func main() {
	cmd.Execute()
}
