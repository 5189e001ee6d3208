// Command bollywood runs a demo ActorSystem joining a file-backed
// cluster, spawning an echo grain kind to exercise an ask round trip
// through cluster.Request. Grounded on webitel-im-delivery-service's
// cmd/cmd.go cli.App/serverCmd shape, with startup logging kept in the
// teacher's fmt.Printf style.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/lguibr/bollywood"
	"github.com/lguibr/bollywood/cluster"
	"github.com/lguibr/bollywood/config"
)

const serviceName = "bollywood"

func main() {
	app := &cli.App{
		Name:  serviceName,
		Usage: "actor runtime and grain cluster demo",
		Commands: []*cli.Command{
			serveCmd(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start an actor system and join the demo cluster",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a YAML config file",
			},
			&cli.StringFlag{
				Name:  "members",
				Usage: "path to the demo file-backed membership list",
				Value: "members.yaml",
			},
			&cli.StringFlag{
				Name:  "member-id",
				Usage: "this process's member id",
				Value: "local",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, v, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
		config.Watch(v, func(updated config.Config) {
			fmt.Println("bollywood: configuration reloaded")
			cfg = updated
		})
	}
	fmt.Printf("bollywood: configuration loaded (throughput=%d, actor-request-timeout=%v)\n", cfg.Throughput, cfg.ActorRequestTimeout)

	system := bollywood.NewActorSystem(
		bollywood.WithAddress(c.String("member-id")),
		bollywood.WithConfig(cfg),
	)
	fmt.Println("bollywood: actor system started")

	self := cluster.Member{ID: c.String("member-id"), Host: "localhost", Port: 8080}
	membership := cluster.NewFileMembershipProvider(c.String("members"), 0, 0)
	grid := cluster.NewCluster(system, self, membership, cfg)
	grid.RegisterKind("echo", echoActivator)

	if err := grid.Start(); err != nil {
		return fmt.Errorf("starting cluster: %w", err)
	}
	fmt.Println("bollywood: cluster joined, echo kind registered")

	result, err := cluster.Request[string](grid, cluster.ClusterIdentity{Kind: "echo", Identity: "demo"}, "ping", cfg.ActorRequestTimeout)
	if err != nil {
		fmt.Printf("bollywood: demo echo request failed: %v\n", err)
	} else {
		fmt.Printf("bollywood: demo echo request succeeded: %q\n", result)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	fmt.Println("bollywood: shutting down...")
	if err := grid.Stop(); err != nil {
		fmt.Printf("bollywood: error stopping cluster: %v\n", err)
	}
	system.Shutdown(5 * time.Second)
	fmt.Println("bollywood: shutdown complete")

	if cfg.ExitOnShutdown {
		os.Exit(0)
	}
	return nil
}

// echoActivator spawns a grain that replies with whatever it is sent,
// demonstrating the minimal Activator contract.
func echoActivator(identity cluster.ClusterIdentity) *bollywood.Props {
	return bollywood.NewProps(func() bollywood.Actor {
		return bollywood.ActorFunc(func(ctx bollywood.Context) {
			switch ctx.Message().(type) {
			case *bollywood.Started, *bollywood.Stopping, *bollywood.Stopped:
				return
			default:
				ctx.Respond(ctx.Message())
			}
		})
	})
}
