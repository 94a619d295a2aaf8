package main

import (
	"os"

	"graded/internal/gradectl"
)

func main() {
	os.Exit(gradectl.Main())
}
