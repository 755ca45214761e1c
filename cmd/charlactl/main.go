package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dreyes/charla/internal/api"
	"github.com/dreyes/charla/internal/config"
	"github.com/dreyes/charla/internal/profile"
)

func main() {
	serverFlag := flag.String("server", "", "server URL (overrides config)")
	emailFlag := flag.String("email", "", "login email (overrides config)")
	passwordFlag := flag.String("password", "", "login password (overrides config)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(profile.ConfigPath())
	if err != nil {
		cfg = &config.Config{}
	}
	server := firstNonEmpty(*serverFlag, cfg.ServerURL, "http://localhost:5000")
	email := firstNonEmpty(*emailFlag, cfg.Email)
	password := firstNonEmpty(*passwordFlag, cfg.Password)

	c, err := api.New(server)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Every command except register needs an authenticated session cookie.
	if args[0] != "register" {
		if email == "" || password == "" {
			fmt.Fprintln(os.Stderr, "error: no credentials; set email/password in config.toml or pass --email/--password")
			os.Exit(1)
		}
		if _, err := c.Login(ctx, email, password); err != nil {
			fatal(fmt.Errorf("login: %w", err))
		}
		defer c.Logout()
	}

	switch args[0] {
	case "register":
		cmdRegister(ctx, c, args[1:])
	case "chats":
		cmdChats(ctx, c, "", *jsonFlag)
	case "search":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: charlactl search <query>")
			os.Exit(1)
		}
		cmdChats(ctx, c, strings.Join(args[1:], " "), *jsonFlag)
	case "messages":
		cmdMessages(ctx, c, args[1:], *jsonFlag)
	case "send":
		cmdSend(ctx, c, args[1:])
	case "send-image":
		cmdSendImage(ctx, c, args[1:])
	case "create":
		cmdCreate(ctx, c, args[1:], *jsonFlag)
	case "delete":
		cmdDelete(ctx, c, args[1:])
	case "users":
		cmdUsers(ctx, c, *jsonFlag)
	case "avatar":
		cmdAvatar(ctx, c, args[1:])
	case "status":
		if err := c.UpdateStatus(ctx); err != nil {
			fatal(err)
		}
		fmt.Println("online marker refreshed")
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: charlactl [--server <url>] [--email <e>] [--password <p>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  register <name> <email> <password>   Create an account")
	fmt.Fprintln(os.Stderr, "  chats                                List chats")
	fmt.Fprintln(os.Stderr, "  search <query>                       Filter chats by name/member")
	fmt.Fprintln(os.Stderr, "  messages <chat-id>                   Show a chat's messages")
	fmt.Fprintln(os.Stderr, "  send <chat-id> <text...>             Send a text message")
	fmt.Fprintln(os.Stderr, "  send-image <chat-id> <path>          Send an image from a file")
	fmt.Fprintln(os.Stderr, "  create <name> <user-id>[,<id>...]    Create a chat")
	fmt.Fprintln(os.Stderr, "  delete <chat-id>                     Delete a chat (for you)")
	fmt.Fprintln(os.Stderr, "  users                                List selectable users")
	fmt.Fprintln(os.Stderr, "  avatar <path>                        Upload a profile avatar")
	fmt.Fprintln(os.Stderr, "  status                               Refresh the online marker")
}

func cmdRegister(ctx context.Context, c *api.Client, args []string) {
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: charlactl register <name> <email> <password>")
		os.Exit(1)
	}
	u, err := c.Register(ctx, args[0], args[1], args[2])
	if err != nil {
		fatal(err)
	}
	fmt.Printf("registered %s (id %d)\n", u.Name, u.ID)
}

func cmdChats(ctx context.Context, c *api.Client, query string, jsonOut bool) {
	var (
		chats []api.ChatSummary
		err   error
	)
	if query == "" {
		chats, err = c.Chats(ctx)
	} else {
		chats, err = c.SearchChats(ctx, query)
	}
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(chats)
		return
	}
	for _, chat := range chats {
		kind := "1:1"
		if chat.IsGroup {
			n := 0
			if chat.GroupInfo != nil {
				n = chat.GroupInfo.ParticipantCount
			}
			kind = fmt.Sprintf("group(%d)", n)
		}
		preview := ""
		if lm := chat.LastMessage(); lm != nil {
			preview = fmt.Sprintf("%s %s", lm.Timestamp, lm.Content)
		}
		fmt.Printf("%-5d %-10s %-25s %s\n", chat.ID, kind, chat.Name, preview)
	}
}

func cmdMessages(ctx context.Context, c *api.Client, args []string, jsonOut bool) {
	chatID := parseChatID(args, "charlactl messages <chat-id>")
	msgs, err := c.ChatMessages(ctx, chatID)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(msgs)
		return
	}
	for _, m := range msgs {
		body := m.Content
		if m.IsImage() {
			body = "[imagen] " + body
		}
		fmt.Printf("%s  %-15s %s\n", m.Timestamp.Format("2006-01-02 15:04"), m.UserName, body)
	}
}

func cmdSend(ctx context.Context, c *api.Client, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: charlactl send <chat-id> <text...>")
		os.Exit(1)
	}
	chatID := parseChatID(args[:1], "charlactl send <chat-id> <text...>")
	if err := c.SendMessage(ctx, chatID, strings.Join(args[1:], " ")); err != nil {
		fatal(err)
	}
	fmt.Println("sent")
}

func cmdSendImage(ctx context.Context, c *api.Client, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: charlactl send-image <chat-id> <path>")
		os.Exit(1)
	}
	chatID := parseChatID(args[:1], "charlactl send-image <chat-id> <path>")
	f, err := os.Open(args[1])
	if err != nil {
		fatal(err)
	}
	defer f.Close()
	if err := c.SendImageMessage(ctx, chatID, filepath.Base(args[1]), f); err != nil {
		fatal(err)
	}
	fmt.Println("sent")
}

func cmdCreate(ctx context.Context, c *api.Client, args []string, jsonOut bool) {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: charlactl create <name> <user-id>[,<id>...]")
		os.Exit(1)
	}
	var participants []int
	for _, part := range strings.Split(args[1], ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			fatal(fmt.Errorf("invalid user id %q", part))
		}
		participants = append(participants, id)
	}
	created, err := c.CreateChat(ctx, args[0], participants, len(participants) > 1)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(created)
		return
	}
	fmt.Printf("created chat %d (%s)\n", created.ID, created.Name)
}

func cmdDelete(ctx context.Context, c *api.Client, args []string) {
	chatID := parseChatID(args, "charlactl delete <chat-id>")
	if err := c.DeleteChat(ctx, chatID); err != nil {
		fatal(err)
	}
	fmt.Println("deleted")
}

func cmdUsers(ctx context.Context, c *api.Client, jsonOut bool) {
	users, err := c.Users(ctx)
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(users)
		return
	}
	for _, u := range users {
		fmt.Printf("%-5d %-20s %s\n", u.ID, u.Name, u.Email)
	}
}

func cmdAvatar(ctx context.Context, c *api.Client, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: charlactl avatar <path>")
		os.Exit(1)
	}
	f, err := os.Open(args[0])
	if err != nil {
		fatal(err)
	}
	defer f.Close()
	if err := c.UploadAvatar(ctx, filepath.Base(args[0]), f); err != nil {
		fatal(err)
	}
	fmt.Println("avatar updated")
}

func parseChatID(args []string, usage string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: "+usage)
		os.Exit(1)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fatal(fmt.Errorf("invalid chat id %q", args[0]))
	}
	return id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
