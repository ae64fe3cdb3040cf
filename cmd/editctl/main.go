// Command editctl resolves persisted edit histories offline.
package main

func main() {
	Execute()
}
