package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dalfonso89/currency-converter/internal/config"
	"github.com/dalfonso89/currency-converter/internal/convert"
	"github.com/dalfonso89/currency-converter/internal/logger"
	"github.com/dalfonso89/currency-converter/internal/platform"
	"github.com/dalfonso89/currency-converter/internal/rates"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, performs one conversion and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("convert", flag.ContinueOnError)
	flags.SetOutput(stderr)

	from := flags.String("from", "EUR", "Source currency code")
	to := flags.String("to", "USD", "Target currency code")
	amount := flags.String("amount", "1", "Amount to convert, written in -locale")
	dateInput := flags.String("date", "latest", "Rate date (YYYY-MM-DD or latest)")
	reverse := flags.Bool("reverse", false, "Treat -amount as the target amount and convert back")
	locale := flags.String("locale", "", "Locale for parsing and printing amounts (default DISPLAY_LOCALE)")
	list := flags.Bool("list", false, "List the currency codes available on -date and exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	logger := logger.NewWithOutput(cfg.LogLevel, stderr)

	date, err := rates.ParseRateDate(*dateInput)
	if err == nil {
		err = date.Validate(time.Now(), time.Local)
	}
	if err != nil {
		fmt.Fprintf(stderr, "%v: %s\n", err, *dateInput)
		return 1
	}

	if *locale == "" {
		*locale = cfg.DisplayLocale
	}
	formatter := convert.NewFormatter(*locale)

	ctx, stop := platform.NewShutdownContext(context.Background())
	defer stop()

	exchangeRates, err := rates.NewFetcher(cfg, logger).FetchRates(ctx, date)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if *list {
		fmt.Fprintln(stdout, strings.Join(exchangeRates.Rates.Codes(), "\n"))
		return 0
	}

	value, err := formatter.ParseAmount(*amount)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	direction := convert.Forward
	if *reverse {
		direction = convert.Reverse
	}
	result, err := convert.Convert(exchangeRates.Rates, *from, *to, value, direction)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	logger.Debugf("Converted %s %s -> %s on %s (%s)", *amount, *from, *to, exchangeRates.Date, direction)
	fmt.Fprintln(stdout, formatter.Format(result))
	return 0
}
