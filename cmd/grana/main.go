// Package main is the entry point for Grana.
package main

func main() {
	Execute()
}
