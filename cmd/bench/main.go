// Command bench measures switch throughput for three workloads: a
// delegating chain, a ping-pong pair, and a fan-out of sibling tasks. Built
// as a cobra command tree (root plus one subcommand per workload) rather
// than the flat flag.Parse() of cmd/tasklet, since a benchmark runner with
// several independent workloads suits cobra's subcommand model better.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tasklet/task"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark tasklet switch throughput",
	}
	root.AddCommand(newChainCmd())
	root.AddCommand(newPingPongCmd())
	root.AddCommand(newFanOutCmd())
	return root
}

func newChainCmd() *cobra.Command {
	var rounds int
	var depth int
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Benchmark a delegating chain of tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			report(cmd, "chain", rounds, func() {
				runChainOnce(depth, rounds)
			})
			return nil
		},
	}
	cmd.Flags().IntVar(&rounds, "rounds", 10_000, "number of entries into the chain's head")
	cmd.Flags().IntVar(&depth, "depth", 8, "number of links in the chain")
	return cmd
}

func newPingPongCmd() *cobra.Command {
	var rounds int
	cmd := &cobra.Command{
		Use:   "pingpong",
		Short: "Benchmark two tasks switching back and forth",
		RunE: func(cmd *cobra.Command, args []string) error {
			report(cmd, "pingpong", rounds, func() {
				runPingPongOnce(rounds)
			})
			return nil
		},
	}
	cmd.Flags().IntVar(&rounds, "rounds", 100_000, "number of round trips")
	return cmd
}

func newFanOutCmd() *cobra.Command {
	var rounds int
	var fanout int
	cmd := &cobra.Command{
		Use:   "fanout",
		Short: "Benchmark one root task switching into many siblings in turn",
		RunE: func(cmd *cobra.Command, args []string) error {
			report(cmd, "fanout", rounds*fanout, func() {
				runFanOutOnce(fanout, rounds)
			})
			return nil
		},
	}
	cmd.Flags().IntVar(&rounds, "rounds", 1_000, "number of passes over the sibling set")
	cmd.Flags().IntVar(&fanout, "fanout", 32, "number of sibling tasks")
	return cmd
}

func report(cmd *cobra.Command, name string, switches int, body func()) {
	runID := uuid.New()
	start := time.Now()
	body()
	elapsed := time.Since(start)
	perSwitch := time.Duration(0)
	if switches > 0 {
		perSwitch = elapsed / time.Duration(switches)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s run=%s switches=%d elapsed=%s per-switch=%s\n",
		name, runID, switches, elapsed, perSwitch)
}

func runChainOnce(depth, rounds int) {
	for r := 0; r < rounds; r++ {
		runChainRound(depth, r)
	}
}

// runChainRound builds a fresh chain of depth links, each the parent of the
// next, and enters its head once with r. The last link's result unwinds
// back through every link, each dying in turn, so a chain serves one round.
func runChainRound(depth, r int) {
	root := task.Current()
	links := make([]*task.Task, depth)
	tail := root
	for i := 0; i < depth; i++ {
		idx := i
		parent := tail
		links[idx] = task.Create(func(a task.Args, _ task.Kwargs) (task.Args, error) {
			if idx == depth-1 {
				return a, nil
			}
			return links[idx+1].Switch(a, nil)
		}, task.WithParent(parent))
		tail = links[idx]
	}
	if _, err := links[0].Switch(task.Args{r}, nil); err != nil {
		panic(err)
	}
}

func runPingPongOnce(rounds int) {
	root := task.Current()
	ping := task.Create(func(task.Args, task.Kwargs) (task.Args, error) {
		for {
			if _, err := root.Switch(nil, nil); err != nil {
				return nil, err
			}
		}
	})
	pong := task.Create(func(task.Args, task.Kwargs) (task.Args, error) {
		for {
			if _, err := root.Switch(nil, nil); err != nil {
				return nil, err
			}
		}
	})
	for r := 0; r < rounds; r++ {
		if _, err := ping.Switch(nil, nil); err != nil {
			panic(err)
		}
		if _, err := pong.Switch(nil, nil); err != nil {
			panic(err)
		}
	}
	ping.Destroy()
	pong.Destroy()
}

func runFanOutOnce(fanout, rounds int) {
	root := task.Current()
	siblings := make([]*task.Task, fanout)
	for i := range siblings {
		siblings[i] = task.Create(func(task.Args, task.Kwargs) (task.Args, error) {
			for {
				if _, err := root.Switch(nil, nil); err != nil {
					return nil, err
				}
			}
		})
	}
	for r := 0; r < rounds; r++ {
		for _, s := range siblings {
			if _, err := s.Switch(nil, nil); err != nil {
				panic(err)
			}
		}
	}
	for _, s := range siblings {
		s.Destroy()
	}
}
