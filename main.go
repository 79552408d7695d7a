package main

import "github.com/AvaProtocol/ap-airdrop/cmd"

func main() {
	cmd.Execute()
}
