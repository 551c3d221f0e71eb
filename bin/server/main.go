package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/zond/overseer/console"
	"github.com/zond/overseer/pemfile"
	"github.com/zond/overseer/server"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	config := server.DefaultConfig()

	flag.StringVar(&config.SSHAddr, "ssh", config.SSHAddr, "Where to listen to SSH connections.")
	flag.StringVar(&config.Dir, "dir", filepath.Join(os.Getenv("HOME"), ".overseer"), "Where to save settings, reports, and keys.")
	flag.StringVar(&config.Hostname, "hostname", config.Hostname, "Server name shown to connecting players.")
	flag.IntVar(&config.MaxPlayers, "maxplayers", config.MaxPlayers, "Connection cap.")
	logPath := flag.String("log", "", "Log file to rotate into. Empty means stderr.")
	grant := flag.String("grant", "", "Grant a capability as admin:capability (or admin:all) and exit.")

	flag.Parse()

	if *logPath != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   *logPath,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
		})
	}

	if err := os.MkdirAll(config.Dir, 0700); err != nil {
		log.Fatal(err)
	}

	if *grant != "" {
		parts := strings.SplitN(*grant, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			log.Fatalf("bad -grant %q, want admin:capability", *grant)
		}
		capability := parts[1]
		if capability == "all" {
			capability = console.CapAll
		}
		authorizer, err := server.LoadAuthorizer(filepath.Join(config.Dir, "permissions.json"))
		if err != nil {
			log.Fatal(err)
		}
		if err := authorizer.Grant(parts[0], capability); err != nil {
			log.Fatal(err)
		}
		log.Printf("Granted %q to %q", capability, parts[0])
		return
	}

	keyPath := filepath.Join(config.Dir, "private.pem")
	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		params := pemfile.KeyParams{
			KeyPath:       keyPath,
			SSHPubKeyPath: filepath.Join(config.Dir, "public.pem"),
		}
		if err := params.Generate(); err != nil {
			log.Fatal(err)
		}
		log.Printf("Generated server key pair in %q", config.Dir)
	} else if err != nil {
		log.Fatal(err)
	}

	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		log.Fatal(err)
	}

	srv, err := server.New(config, nil)
	if err != nil {
		log.Fatal(err)
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupts
		srv.Shutdown()
		os.Exit(0)
	}()

	log.Fatal(srv.Start(pemBytes))
}
