package main

import (
	"os"
	"os/signal"

	"github.com/alexflint/go-arg"

	"relaytester.dev/pkg/app"
	"relaytester.dev/pkg/app/config"
	"relaytester.dev/pkg/utils/chk"
	"relaytester.dev/pkg/utils/context"
	"relaytester.dev/pkg/utils/log"
)

var args config.RunArgs

func main() {
	arg.MustParse(&args)
	ctx, cancel := signal.NotifyContext(context.Bg(), os.Interrupt)
	defer cancel()
	if err := app.Run(ctx, args, os.Stdout); chk.T(err) {
		log.F.Ln(err)
	}
}
