package main

import "habbit_backend/internal/app"

func main() {
	app.Run()
}
