package main

import (
	stdLog "log"
	"time"

	"github.com/Astemirdum/room-booking/booking/app"
	"github.com/Astemirdum/room-booking/booking/config"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Println("no .env file, using the environment")
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithWriteTimeout(time.Minute),
		config.WithStorage(config.StoragePostgres),
	)

	if err := app.Run(&cfg); err != nil {
		stdLog.Fatal(err)
	}
}
