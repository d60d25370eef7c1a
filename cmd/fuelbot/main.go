// Command fuelbot runs the fuel consumption Telegram bot.
package main

func main() {
	Execute()
}
