// tiktaskctl is a small command line consumer of the TikTask API, built on
// pkg/client. Auth commands print a token; task commands read it from the
// TIKTASK_TOKEN environment variable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tiktask/pkg/client"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
	}

	addr := os.Getenv("TIKTASK_ADDR")
	if addr == "" {
		addr = "http://localhost:8080"
	}
	api := client.New(addr, nil)
	session := client.Session{Token: os.Getenv("TIKTASK_TOKEN")}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		parse(fs)
		s, ok := api.Register(ctx, *username, *email, *password)
		if !ok {
			log.Fatal("registration failed")
		}
		fmt.Printf("registered %s (%s)\nexport TIKTASK_TOKEN=%s\n", s.Username, s.Role, s.Token)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		username := fs.String("username", "", "username")
		password := fs.String("password", "", "password")
		parse(fs)
		s, ok := api.Login(ctx, *username, *password)
		if !ok {
			log.Fatal("login failed")
		}
		fmt.Printf("logged in as %s (%s)\nexport TIKTASK_TOKEN=%s\n", s.Username, s.Role, s.Token)

	case "list":
		printTasks(api.Tasks(ctx, session))

	case "list-all":
		printTasks(api.AllTasks(ctx, session))

	case "get":
		id := taskID()
		t, ok := api.Task(ctx, session, id)
		if !ok {
			log.Fatal("not found")
		}
		printTasks([]client.Task{t})

	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		title := fs.String("title", "", "task title")
		desc := fs.String("desc", "", "description")
		due := fs.String("due", "", "due date (RFC3339)")
		parse(fs)
		req := client.TaskRequest{Title: *title, Description: *desc, DueDate: parseDue(*due)}
		t, ok := api.CreateTask(ctx, session, req)
		if !ok {
			log.Fatal("create failed")
		}
		fmt.Printf("created task %d\n", t.ID)

	case "update":
		fs := flag.NewFlagSet("update", flag.ExitOnError)
		id := fs.Int64("id", 0, "task id")
		title := fs.String("title", "", "task title")
		desc := fs.String("desc", "", "description")
		due := fs.String("due", "", "due date (RFC3339)")
		parse(fs)
		req := client.TaskRequest{Title: *title, Description: *desc, DueDate: parseDue(*due)}
		if !api.UpdateTask(ctx, session, *id, req) {
			log.Fatal("update failed")
		}
		fmt.Println("updated")

	case "toggle":
		id := taskID()
		completed, ok := api.ToggleComplete(ctx, session, id)
		if !ok {
			log.Fatal("toggle failed")
		}
		fmt.Printf("isCompleted=%v\n", completed)

	case "rm":
		id := taskID()
		if !api.DeleteTask(ctx, session, id) {
			log.Fatal("delete failed")
		}
		fmt.Println("deleted")

	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: tiktaskctl <command> [flags]

commands:
  register  -username -email -password
  login     -username -password
  list
  list-all
  get       -id
  add       -title [-desc] [-due]
  update    -id -title [-desc] [-due]
  toggle    -id
  rm        -id

environment:
  TIKTASK_ADDR   API base URL (default http://localhost:8080)
  TIKTASK_TOKEN  bearer token from register/login`)
	os.Exit(2)
}

func parse(fs *flag.FlagSet) {
	_ = fs.Parse(os.Args[2:])
}

func taskID() int64 {
	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	id := fs.Int64("id", 0, "task id")
	parse(fs)
	if *id <= 0 {
		log.Fatal("-id required")
	}
	return *id
}

func parseDue(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			log.Fatalf("bad -due %q: use RFC3339 or YYYY-MM-DD", s)
		}
	}
	return t
}

func printTasks(list []client.Task) {
	if len(list) == 0 {
		fmt.Println("no tasks")
		return
	}
	for _, t := range list {
		done := " "
		if t.IsCompleted {
			done = "x"
		}
		owner := ""
		if t.Username != "" {
			owner = " @" + t.Username
		}
		fmt.Printf("[%s] %d %s%s (due %s)\n", done, t.ID, t.Title, owner, t.DueDate.Format("2006-01-02"))
	}
}
