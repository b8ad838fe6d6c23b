// Package main is the entry point for newsdemo.
//
// One binary runs both halves of the demo:
//
//	newsdemo api     # JSON backend on :8080
//	newsdemo serve   # server-rendered pages on :3000
package main

func main() {
	Execute()
}
