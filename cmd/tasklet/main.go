// Command tasklet is a small driver binary exercising the coroutine
// runtime end to end: a chain of delegating tasks, a ping-pong pair, and
// a forced-termination cleanup, with optional YAML configuration and
// execution tracing.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"tasklet/config"
	"tasklet/task"
	"tasklet/taskerr"
	"tasklet/trace"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	traceEnabled := flag.Bool("trace", false, "Enable execution tracing to stderr")
	traceFilter := flag.String("trace-filter", "", "Trace filter pattern(s), comma-separated globs")
	slotBudget := flag.Int("slot-budget", 0, "Cap on simultaneously suspended tasks (0 = unbounded)")

	flag.Parse()

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("tasklet: loading config: %v", err)
		}
		cfg.Apply(os.Stderr)
	}

	if *slotBudget > 0 {
		task.SetSlotBudget(*slotBudget)
	}

	if *traceEnabled {
		var filters []string
		if *traceFilter != "" {
			for _, f := range strings.Split(*traceFilter, ",") {
				filters = append(filters, strings.TrimSpace(f))
			}
		}
		root := task.Current()
		trace.SetObserver(root.Owner().ID(), trace.WriterObserver(os.Stderr, func(origin, target any) bool {
			if len(filters) == 0 {
				return true
			}
			s := fmt.Sprintf("%v -> %v", origin, target)
			for _, pattern := range filters {
				if matched, _ := filepath.Match(pattern, s); matched {
					return true
				}
			}
			return false
		}))
		log.Printf("tasklet: tracing enabled (filters: %v)", filters)
	}

	log.Printf("tasklet: running demo scenarios")
	runChainDemo()
	runPingPongDemo()
	runForcedTerminationDemo()
	runUserFailureDemo()
	log.Printf("tasklet: done")
}

func runChainDemo() {
	root := task.Current()
	var a, b, c *task.Task
	a = task.Create(func(args task.Args, _ task.Kwargs) (task.Args, error) {
		return b.Switch(args, nil)
	}, task.WithParent(root))
	b = task.Create(func(args task.Args, _ task.Kwargs) (task.Args, error) {
		return c.Switch(args, nil)
	}, task.WithParent(a))
	c = task.Create(func(args task.Args, _ task.Kwargs) (task.Args, error) {
		return task.Args{"chain-complete"}, nil
	}, task.WithParent(b))

	result, err := a.Switch(task.Args{"go"}, nil)
	if err != nil {
		log.Fatalf("tasklet: chain demo failed: %v", err)
	}
	log.Printf("tasklet: chain demo result: %v", result)
}

func runPingPongDemo() {
	root := task.Current()
	ping := task.Create(func(task.Args, task.Kwargs) (task.Args, error) {
		for i := 0; i < 3; i++ {
			log.Printf("tasklet: ping %d", i)
			if _, err := root.Switch(nil, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	pong := task.Create(func(task.Args, task.Kwargs) (task.Args, error) {
		for i := 0; i < 3; i++ {
			log.Printf("tasklet: pong %d", i)
			if _, err := root.Switch(nil, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})

	for i := 0; i < 3; i++ {
		if _, err := ping.Switch(nil, nil); err != nil {
			log.Fatalf("tasklet: ping-pong demo failed: %v", err)
		}
		if _, err := pong.Switch(nil, nil); err != nil {
			log.Fatalf("tasklet: ping-pong demo failed: %v", err)
		}
	}
}

func runForcedTerminationDemo() {
	var child *task.Task
	child = task.Create(func(task.Args, task.Kwargs) (task.Args, error) {
		_, err := child.Parent().Switch(nil, nil)
		if taskerr.IsExit(err) {
			log.Printf("tasklet: child task ran its cleanup on forced termination")
		}
		return nil, err
	})

	if _, err := child.Switch(nil, nil); err != nil {
		log.Fatalf("tasklet: forced termination demo failed: %v", err)
	}

	child.Destroy()
	log.Printf("tasklet: child dead after Destroy: %v", child.Dead())
}

// runUserFailureDemo raises a formatted failure into a suspended task,
// stamping it with the caller's own frame chain before delivery so the
// task on the receiving end can report where the failure originated.
func runUserFailureDemo() {
	var child *task.Task
	child = task.Create(func(task.Args, task.Kwargs) (task.Args, error) {
		_, err := child.Parent().Switch(nil, nil)
		return nil, err
	})

	if _, err := child.Switch(nil, nil); err != nil {
		log.Fatalf("tasklet: user failure demo failed: %v", err)
	}

	origin := task.Current().StackFrameRoot()
	failure := taskerr.Newf("upstream dependency %q unavailable", "inventory-service").WithTrace(origin.String())

	if _, err := child.ThrowFailure(failure); err == nil {
		log.Fatalf("tasklet: expected the thrown failure to propagate back out")
	} else {
		log.Printf("tasklet: child observed thrown failure: %v", err)
	}
}
