/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/swiftcourier/trackingserver/cmd"

func main() {
	cmd.Execute()
}
