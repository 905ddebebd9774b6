package main

import "github.com/theirongolddev/stakeledger/cmd"

func main() {
	cmd.Execute()
}
