// Command poolctl replays allocation traces against the sizepool allocator.
package main

func main() {
	execute()
}
