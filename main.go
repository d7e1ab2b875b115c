package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dwaller/dicentis-bridge/cmd"
	"github.com/dwaller/dicentis-bridge/pkg/hasher"
)

func main() {
	app := &cli.App{
		Name:   "dicentis-bridge",
		Usage:  "state mirror and control bridge for a Dicentis conference server",
		Action: cmd.BridgeCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{
				// not Required: a missing host is the engine's
				// configuration-error status, not a CLI usage error.
				Name:    "dicentis-host",
				EnvVars: []string{"DICENTIS_HOST"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "dicentis-username",
				EnvVars: []string{"DICENTIS_USERNAME"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "dicentis-password",
				EnvVars: []string{"DICENTIS_PASSWORD"},
				Value:   "",
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				EnvVars: []string{"POLL_INTERVAL"},
				Value:   500 * time.Millisecond,
			},
			&cli.BoolFlag{
				Name:    "reconnect",
				EnvVars: []string{"RECONNECT"},
				Value:   true,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				EnvVars: []string{"VERBOSE_LOGGING"},
				Value:   false,
			},
			&cli.StringFlag{
				Name:    "mqtt-host",
				EnvVars: []string{"MQTT_HOST"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-user",
				EnvVars: []string{"MQTT_USER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-pass",
				EnvVars: []string{"MQTT_PASS"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-client-id",
				EnvVars: []string{"MQTT_CLIENT_ID"},
				Value:   "dicentis-bridge",
			},
			&cli.StringFlag{
				Name:    "mqtt-topic-root",
				EnvVars: []string{"MQTT_TOPIC_ROOT"},
				Value:   "dicentis",
			},
			&cli.StringFlag{
				Name:    "database-url",
				EnvVars: []string{"DATABASE_URL"},
				Value:   "",
			},
			&cli.DurationFlag{
				Name:    "retention",
				EnvVars: []string{"RETENTION"},
				Value:   30 * 24 * time.Hour,
			},
			&cli.StringFlag{
				Name:    "api-addr",
				EnvVars: []string{"API_ADDR"},
				Value:   "0.0.0.0:8000",
			},
			&cli.StringFlag{
				Name:    "api-secret",
				EnvVars: []string{"API_SECRET"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "api-username",
				EnvVars: []string{"API_USERNAME"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "api-password-hash",
				EnvVars: []string{"API_PASSWORD_HASH"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "hash-password",
				Usage:     "print the bcrypt hash of an API password for API_PASSWORD_HASH",
				ArgsUsage: "<password>",
				Action: func(ctx *cli.Context) error {
					if ctx.NArg() != 1 {
						return fmt.Errorf("expected exactly one argument")
					}
					hash, err := hasher.HashPassword([]byte(ctx.Args().First()))
					if err != nil {
						return err
					}
					fmt.Println(hash)
					return nil
				},
			},
			{
				Name:  "generate-secret",
				Usage: "print a random secret suitable for API_SECRET",
				Action: func(ctx *cli.Context) error {
					secret, err := hasher.GenerateToken(32)
					if err != nil {
						return err
					}
					fmt.Println(secret)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
