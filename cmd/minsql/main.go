package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/minsql/minsql/internal/auth"
	"github.com/minsql/minsql/internal/conn"
	"github.com/minsql/minsql/internal/engine"
	"github.com/minsql/minsql/internal/repl"
	"github.com/minsql/minsql/internal/storage"
	"github.com/minsql/minsql/pkg"

	"flag"
)

func main() {
	cwd, _ := os.Getwd()

	db_write_path := flag.String("db", cwd+"/db.msql", "path to save db data")
	in_mem := flag.Bool("m", false, "don't persist db")
	port := flag.Int("port", 7687, "listening port")
	write_interval := flag.Int("i", 1000, "write interval in ms")
	debug := flag.Bool("log", false, "show debug logs")
	use_repl := flag.Bool("repl", false, "run the interactive console instead of the server")
	username := flag.String("user", "", "server username (empty disables auth)")
	password := flag.String("pass", "", "server password")

	flag.Parse()

	if *debug {
		pkg.SetLogLevel(pkg.LogLevelDebug)
	} else {
		pkg.SetLogLevel(pkg.LogLevelErrOnly)
	}

	settings := storage.NewWriteSettings(*db_write_path, *in_mem, *write_interval)
	c, err := storage.Load(settings)
	if err != nil {
		pkg.FatalLog("failed to load database;", err)
	}

	store := storage.NewStore(settings, c)
	store.Start()

	if *use_repl {
		repl.Run(engine.NewExecutor(c), os.Stdin, os.Stdout)
		store.Stop()
		return
	}

	var users []*auth.User
	if *username != "" {
		users = append(users, auth.NewUser(*username, *password, auth.UserRoleAdmin))
	}

	server := conn.NewServer(c, store, users)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		store.Stop()
		os.Exit(0)
	}()

	if err := server.Listen(*port); err != nil {
		pkg.FatalLog(err)
	}
}
