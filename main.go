package main

import "lavalink-music-bot/cmd"

func main() {
	cmd.Execute()
}
