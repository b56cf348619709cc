// Command tracker manages tasks, epics and subtasks from the terminal.
package main

func main() {
	Execute()
}
