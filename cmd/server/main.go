package main

import "github.com/tchernob/congesflow/internal/app/server"

func main() {
	server.Run()
}
