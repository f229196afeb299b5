package main

import "fmt"

func greet(name string) string {
	return fmt.Sprintf("hello, %s!", name)
}

func main() {
	for i := 0; i < 3; i++ {
		fmt.Println(greet("world"), i*2.5)
	}
}
