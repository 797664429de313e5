package main

import (
	"github.com/weft-labs/weft/backend/internal/server"
	"github.com/weft-labs/weft/backend/internal/util"
	"github.com/weft-labs/weft/backend/pkg/logger"
	"github.com/weft-labs/weft/backend/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
