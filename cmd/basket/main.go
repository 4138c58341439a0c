// Command basket prices a fixture's basket through its promotion stack and
// prints the receipt. With -o it also writes the layer-by-layer ILP export.
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/noah-isme/basket-engine/internal/fixture"
	"github.com/noah-isme/basket-engine/internal/graph"
	"github.com/noah-isme/basket-engine/internal/ilp"
	"github.com/noah-isme/basket-engine/internal/obs"
	"github.com/noah-isme/basket-engine/internal/receipt"
)

func main() {
	var (
		fixtureName = flag.String("f", "complex", "fixture set to use for the basket & promotions")
		limit       = flag.Int("n", -1, "number of items to add to the basket (-1 for all)")
		out         = flag.String("o", "", "write the ILP export to this path")
		logLevel    = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	logger := obs.NewLogger("console", *logLevel)

	def, err := fixture.Load(*fixtureName)
	if err != nil {
		logger.Error().Err(err).Msg("load fixture")
		os.Exit(1)
	}
	stack, err := def.Build(logger)
	if err != nil {
		logger.Error().Err(err).Msg("build stack")
		os.Exit(1)
	}
	items, err := def.Items(*limit)
	if err != nil {
		logger.Error().Err(err).Msg("build basket")
		os.Exit(1)
	}

	var rcpt receipt.Receipt
	if *out != "" {
		exporter := ilp.NewExporter()
		rcpt, err = stack.ProcessWithObserver(items, exporter)
		if err == nil {
			if werr := exporter.WriteFile(*out); werr != nil {
				logger.Error().Err(werr).Str("path", *out).Msg("write ilp export")
				os.Exit(1)
			}
		}
	} else {
		rcpt, err = stack.Process(items)
	}
	if err != nil {
		logger.Error().Err(err).Msg("process basket")
		os.Exit(1)
	}

	if err := render(os.Stdout, stack, rcpt); err != nil {
		logger.Error().Err(err).Msg("render receipt")
		os.Exit(1)
	}
}

func render(w *os.File, stack *graph.Stack, rcpt receipt.Receipt) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "PROMOTION\tLAYER\tITEM\tWAS\tNOW\tSAVED\n")
	for _, red := range rcpt.Redemptions {
		saved, err := red.Savings()
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			red.PromotionKey, red.LayerKey, red.ItemKey, red.OriginalPrice, red.FinalPrice, saved)
	}
	for _, it := range rcpt.FullPriceItems {
		fmt.Fprintf(tw, "-\t-\t%s\t%s\t%s\t-\n", it.Key, it.Price, it.Price)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	saved, err := rcpt.TotalSavings()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nlayers: %d\n", len(stack.Layers()))
	fmt.Fprintf(w, "subtotal: %s\n", rcpt.Subtotal)
	fmt.Fprintf(w, "saved:    %s\n", saved)
	fmt.Fprintf(w, "total:    %s\n", rcpt.Total)
	return nil
}
