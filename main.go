package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()

	if err != nil {
		log.Println(".env file not found, using system env variables")
	}
	fmt.Println(os.Getenv("DB_HOST"))
}
