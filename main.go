package main

import (
	"fmt"

	_ "github.com/agentuity/go-memoize/logger"
	_ "github.com/agentuity/go-memoize/memoize"
)

func main() {
	fmt.Println("Hi")
}
