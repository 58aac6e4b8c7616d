package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/e2b-dev/infra/packages/flash/internal/cfg"
	"github.com/e2b-dev/infra/packages/flash/internal/logger"
)

const usage = `usage: flashctl <command> [flags]

commands:
  format [image...]              erase whole images
  write -offset N -hex DATA      write bytes through the read-modify-write adapter
  read -offset N -length N       hex dump a range
  inspect -start P -end P        report programmed bytes per erase page

The device geometry is configured with FLASH_* environment variables.
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	config, err := cfg.Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %s", err)
	}

	l, err := logger.NewLogger(logger.LoggerConfig{
		ServiceName: "flashctl",
		IsDebug:     config.Debug,
		InitialFields: []zap.Field{
			zap.String("image", config.ImagePath),
			zap.Bool("multiwrite", config.Multiwrite),
		},
	})
	if err != nil {
		log.Fatalf("failed to create logger: %s", err)
	}
	defer l.Sync()

	zap.ReplaceGlobals(l)

	ctx := context.Background()
	args := flag.Args()[1:]

	switch flag.Arg(0) {
	case "format":
		err = runFormat(ctx, config, args)
	case "write":
		err = runWrite(config, args, os.Stdout)
	case "read":
		err = runRead(config, args, os.Stdout)
	case "inspect":
		err = runInspect(config, args, os.Stdout)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		l.Error("command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		l.Sync()
		os.Exit(1)
	}
}
