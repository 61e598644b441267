// Command decofd boots a DeCoF server: it loads config.json, builds the
// object dictionary from it, and serves the CLI request/response, CLI
// pub/sub, and SCGI protocols concurrently -- plus an optional /debug
// diagnostics mux -- until a signal requests shutdown.
//
// Grounded on cc-backend's cmd/cc-backend/main.go bootstrap order
// (flags -> .env -> config -> sub-modules -> listeners -> signal
// handling), generalizing its ad hoc sync.WaitGroup listener
// supervision to golang.org/x/sync/errgroup (one goroutine per listener
// plus one for the timer loop, the first error or signal tearing down
// the rest via the shared context).
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/decof-project/decofd/internal/access"
	"github.com/decof-project/decofd/internal/auth"
	"github.com/decof-project/decofd/internal/clicmd"
	"github.com/decof-project/decofd/internal/clipubsub"
	"github.com/decof-project/decofd/internal/config"
	"github.com/decof-project/decofd/internal/debugmux"
	"github.com/decof-project/decofd/internal/scgi"
	"github.com/decof-project/decofd/internal/strand"

	"github.com/decof-project/decofd/internal/dictionary"
	"github.com/decof-project/decofd/pkg/log"
	"github.com/decof-project/decofd/pkg/runtimeEnv"
)

func main() {
	var flagConfigFile, flagEnvFile, flagLogLevel string
	flag.StringVar(&flagConfigFile, "config", "./config.json", "load server configuration from `file`")
	flag.StringVar(&flagEnvFile, "env", "./.env", "load environment overrides from `file`")
	flag.StringVar(&flagLogLevel, "loglevel", "info", "one of debug, info, notice, warn, err, crit")
	flag.Parse()

	log.SetLogLevel(flagLogLevel)

	if err := godotenv.Load(flagEnvFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("decofd: loading %s: %s", flagEnvFile, err.Error())
	}

	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		log.Fatalf("decofd: %s", err.Error())
	}

	sd := strand.New(64)
	defer sd.Close()

	dict := dictionary.New(cfg.RootName, sd.Post)
	if len(cfg.Separator) == 1 {
		dict.SetSeparator(cfg.Separator[0])
	}

	authenticator, err := buildAuthenticator(cfg)
	if err != nil {
		log.Fatalf("decofd: %s", err.Error())
	}

	cliLn, err := net.Listen("tcp", cfg.CLIAddr)
	if err != nil {
		log.Fatalf("decofd: cli listener: %s", err.Error())
	}
	pubsubLn, err := net.Listen("tcp", cfg.PubsubAddr)
	if err != nil {
		log.Fatalf("decofd: pubsub listener: %s", err.Error())
	}
	scgiLn, err := net.Listen("tcp", cfg.SCGIAddr)
	if err != nil {
		log.Fatalf("decofd: scgi listener: %s", err.Error())
	}

	var debugLn net.Listener
	if cfg.DebugAddr != "" {
		debugLn, err = net.Listen("tcp", cfg.DebugAddr)
		if err != nil {
			log.Fatalf("decofd: debug listener: %s", err.Error())
		}
	}

	if err := runtimeEnv.DropPrivileges(cfg.User, cfg.Group); err != nil {
		log.Fatalf("decofd: dropping privileges: %s", err.Error())
	}
	runtimeEnv.SystemdNotifiy(true, "serving")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Note("decofd: cli listening at ", cfg.CLIAddr)
		return clicmd.Serve(cliLn, dict, sd, cfg.RootName, authenticator)
	})
	g.Go(func() error {
		log.Note("decofd: pubsub listening at ", cfg.PubsubAddr)
		return clipubsub.Serve(pubsubLn, dict, sd)
	})
	g.Go(func() error {
		log.Note("decofd: scgi listening at ", cfg.SCGIAddr)
		return scgi.Serve(scgiLn, dict, sd)
	})
	g.Go(func() error {
		return runTimers(gctx, dict, cfg.Timers)
	})
	if debugLn != nil {
		g.Go(func() error {
			log.Note("decofd: debug mux listening at ", cfg.DebugAddr)
			return http.Serve(debugLn, debugmux.New(dict))
		})
	}
	g.Go(func() error {
		select {
		case <-sigs:
			log.Note("decofd: shutting down")
		case <-gctx.Done():
		}
		runtimeEnv.SystemdNotifiy(false, "shutting down")
		cliLn.Close()
		pubsubLn.Close()
		scgiLn.Close()
		if debugLn != nil {
			debugLn.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		log.Fatalf("decofd: %s", err.Error())
	}
}

// buildAuthenticator constructs the access.Authenticator cmd/decofd
// wires into the CLI's 'change-ul handling, per cfg.Authenticator
// (spec §4.6: the authentication mechanism is a host-application
// concern, never mandated by the protocol itself). "none" always
// denies every 'change-ul request, matching a deployment that never
// provisioned any password.
func buildAuthenticator(cfg config.ProgramConfig) (access.Authenticator, error) {
	switch cfg.Authenticator {
	case "", "none":
		return nil, nil
	case "level-password":
		hashes := make(map[access.Userlevel]string, len(cfg.LevelPasswordHashes))
		for name, hash := range cfg.LevelPasswordHashes {
			lvl, ok := parseUserlevelName(name)
			if !ok {
				return nil, fmt.Errorf("decofd: unknown userlevel %q in levelPasswordHashes", name)
			}
			hashes[lvl] = hash
		}
		la, err := auth.NewLevelAuthenticator(hashes)
		if err != nil {
			return nil, err
		}
		return la.AsCallback(), nil
	default:
		return nil, fmt.Errorf("decofd: unknown authenticator %q", cfg.Authenticator)
	}
}

func parseUserlevelName(name string) (access.Userlevel, bool) {
	for lvl := access.Internal; lvl <= access.Forbidden; lvl++ {
		if lvl.String() == name {
			return lvl, true
		}
	}
	return 0, false
}

// runTimers drives the dictionary's three shared polling timers at the
// configured periods until ctx is cancelled, matching
// original_source/regular_timer.cpp's three named periodic timers.
func runTimers(ctx context.Context, dict *dictionary.Dictionary, t config.Timers) error {
	fast := time.NewTicker(t.Fast())
	medium := time.NewTicker(t.Medium())
	slow := time.NewTicker(t.Slow())
	defer fast.Stop()
	defer medium.Stop()
	defer slow.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-fast.C:
			dict.TickFast()
		case <-medium.C:
			dict.TickMedium()
		case <-slow.C:
			dict.TickSlow()
		}
	}
}
