// Command replay inspects recorded run transcripts: it lists runs in a
// transcript index and dumps a run's conversation in turn order.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"gridsandbox.ai/internal/persistence/transcript"
)

func main() {
	var (
		dbPath = flag.String("db", "data/transcripts.db", "transcript index path")
		runID  = flag.String("run", "", "run id to dump (empty lists runs)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[replay] ", log.LstdFlags)

	idx, err := transcript.OpenSQLite(*dbPath)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	ctx := context.Background()
	if *runID == "" {
		runs, err := idx.Runs(ctx)
		if err != nil {
			logger.Fatalf("list runs: %v", err)
		}
		if len(runs) == 0 {
			fmt.Println("no recorded runs")
			return
		}
		for _, id := range runs {
			n, err := idx.TurnCount(ctx, id)
			if err != nil {
				logger.Fatalf("turn count for %s: %v", id, err)
			}
			fmt.Printf("%s\t%d turns\n", id, n)
		}
		return
	}

	msgs, err := idx.Conversation(ctx, *runID)
	if err != nil {
		logger.Fatalf("load conversation: %v", err)
	}
	if len(msgs) == 0 {
		fmt.Printf("run %s has no recorded messages\n", *runID)
		return
	}
	for _, m := range msgs {
		fmt.Printf("turn %3d  %s -> %s: %s\n", m.Turn, m.From, m.To, m.Message)
	}
}
