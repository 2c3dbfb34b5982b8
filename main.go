package main

import "github.com/hireloop/interview-coach/cmd"

func main() {
	cmd.Execute()
}
