// Package main provides the oppscout command line.
//
// oppscout crawls the funding bodies of its source registry and reports the
// grant opportunities it finds, either once from the terminal or as an HTTP
// service.
//
// Usage:
//
//	oppscout discover --source screen_australia --format markdown
//	oppscout serve
//	oppscout sources
package main

func main() {
	Execute()
}
