// Command vcctl drives the engine's allocator and asynchronous file system
// from the command line.
package main

func main() {
	execute()
}
