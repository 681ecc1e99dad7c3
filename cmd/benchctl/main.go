// benchctl runs one configuration load against an engine's automation port
// and reports the result. Exit status is zero only when the load succeeded.
// Usage: benchctl -addr 127.0.0.1:5050 -tbc bench.tbc -tcf test.tcf -const SPEED=10
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/seantiz/benchd/internal/config"
	"github.com/seantiz/benchd/internal/dispatch"
	"github.com/seantiz/benchd/internal/engine"
	"github.com/seantiz/benchd/internal/loader"
	"github.com/seantiz/benchd/internal/model"
)

// constantFlags collects repeated -const NAME=VALUE flags in order.
type constantFlags []model.GlobalConstant

func (c *constantFlags) String() string {
	parts := make([]string, len(*c))
	for i, gc := range *c {
		parts[i] = gc.Name + "=" + gc.Value
	}
	return strings.Join(parts, ",")
}

func (c *constantFlags) Set(v string) error {
	name, value, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return fmt.Errorf("constant must be NAME=VALUE, got %q", v)
	}
	*c = append(*c, model.GlobalConstant{Name: name, Value: value})
	return nil
}

func main() {
	var (
		addr        = flag.String("addr", "", "engine automation address (host:port or unix socket path)")
		tbc         = flag.String("tbc", "", "test bench configuration path (empty for none)")
		tcf         = flag.String("tcf", "", "test configuration path (empty for none)")
		forceReload = flag.Bool("force-reload", false, "stop the engine before loading")
		loadOnly    = flag.Bool("load-only", false, "load configurations without starting them")
		timeoutS    = flag.Int("timeout", -1, "per-call timeout in seconds (0 disables, -1 uses the configured default)")
		constants   constantFlags
	)
	flag.Var(&constants, "const", "global constant NAME=VALUE (repeatable)")
	flag.Parse()

	if *addr == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)

	timeout := time.Duration(cfg.CallTimeoutS) * time.Second
	if *timeoutS >= 0 {
		timeout = time.Duration(*timeoutS) * time.Second
	}

	ctx := context.Background()
	conn, err := dispatch.Dial(ctx, *addr)
	if err != nil {
		log.Fatalf("failed to connect to engine: %v", err)
	}
	defer conn.Close()

	client := engine.NewClient(conn.Root(), timeout)
	defer client.Close()

	res := loader.New(client, logger).Load(ctx, model.TestRunConfig{
		TbcPath:     *tbc,
		TcfPath:     *tcf,
		Constants:   constants,
		ForceReload: *forceReload,
		LoadOnly:    *loadOnly,
	})

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode result: %v", err)
	}
	fmt.Println(string(out))

	if !res.Loaded {
		os.Exit(1)
	}
}
