package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/term"

	"github.com/matheus3301/chatrise/internal/config"
	"github.com/matheus3301/chatrise/internal/rpc"
	"github.com/matheus3301/chatrise/internal/session"
	"github.com/matheus3301/chatrise/internal/tui/client"
)

var jsonOut bool

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	serverFlag := flag.String("server", "", "server address (overrides config)")
	flag.BoolVar(&jsonOut, "json", false, "output in JSON format")
	flag.Parse()

	_ = config.LoadDotEnv(".env", session.DotEnvPath())

	profileName := session.Resolve(*profileFlag)
	if err := session.ValidateName(profileName); err != nil {
		fail(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		fail(fmt.Errorf("load config: %w", err))
	}
	target := cfg.Client.Server
	if *serverFlag != "" {
		target = *serverFlag
	}

	token, err := session.LoadToken(profileName)
	if err != nil && !errors.Is(err, session.ErrNoToken) {
		fail(err)
	}

	c, err := client.New(target, token)
	if err != nil {
		fail(fmt.Errorf("cannot connect to %s: %w", target, err))
	}
	defer func() { _ = c.Close() }()

	cmd := &command{c: c, profile: profileName}
	if args[0] == "watch" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.watch(ctx, args[1:])
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "register":
		need(args, 3, "register <username> <email>")
		cmd.register(ctx, args[1], args[2])
	case "login":
		need(args, 2, "login <email|username>")
		cmd.login(ctx, args[1])
	case "logout":
		cmd.logout(ctx)
	case "whoami":
		cmd.profileOf(ctx, "")
	case "profile":
		id := ""
		if len(args) > 1 {
			id = cmd.resolveUser(ctx, args[1])
		}
		cmd.profileOf(ctx, id)
	case "set-username":
		need(args, 2, "set-username <name>")
		cmd.update(ctx, "username", args[1], readPassword("Current password: "))
	case "set-bio":
		cmd.update(ctx, "description", strings.Join(args[1:], " "), "")
	case "set-password":
		cmd.setPassword(ctx)
	case "avatar":
		need(args, 2, "avatar <image file>")
		cmd.avatar(ctx, args[1])
	case "users":
		cmd.users(ctx)
	case "search":
		need(args, 2, "search <email>")
		cmd.search(ctx, args[1])
	case "add":
		need(args, 2, "add <email|username>")
		cmd.add(ctx, args[1])
	case "accept":
		need(args, 2, "accept <request-id>")
		cmd.accept(ctx, args[1])
	case "remove":
		need(args, 2, "remove <request-id>")
		cmd.remove(ctx, args[1])
	case "friends":
		cmd.friends(ctx)
	case "requests":
		cmd.requests(ctx)
	case "chats":
		cmd.chats(ctx)
	case "send":
		cmd.send(ctx, args[1:])
	case "history":
		need(args, 2, "history <user> [limit]")
		cmd.history(ctx, args[1], optInt(args, 2))
	case "global":
		cmd.global(ctx, args[1:])
	case "read":
		need(args, 2, "read <user>")
		cmd.read(ctx, args[1])
	case "unread":
		need(args, 2, "unread <user>")
		cmd.unread(ctx, args[1])
	case "find":
		need(args, 2, "find <text>")
		cmd.find(ctx, strings.Join(args[1:], " "))
	case "online":
		cmd.online(ctx)
	case "qr":
		cmd.qr(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: chatrisectl [--profile <name>] [--server <addr>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "account:")
	fmt.Fprintln(os.Stderr, "  register <username> <email>   Create an account and log in")
	fmt.Fprintln(os.Stderr, "  login <email|username>        Log in")
	fmt.Fprintln(os.Stderr, "  logout                        End the session")
	fmt.Fprintln(os.Stderr, "  whoami                        Show your profile")
	fmt.Fprintln(os.Stderr, "  set-password                  Change your password")
	fmt.Fprintln(os.Stderr, "profile:")
	fmt.Fprintln(os.Stderr, "  profile [user]                Show a profile")
	fmt.Fprintln(os.Stderr, "  set-username <name>           Change your username")
	fmt.Fprintln(os.Stderr, "  set-bio <text>                Change your description")
	fmt.Fprintln(os.Stderr, "  avatar <file>                 Upload a profile picture")
	fmt.Fprintln(os.Stderr, "  users                         List users")
	fmt.Fprintln(os.Stderr, "  qr                            Show your contact QR code")
	fmt.Fprintln(os.Stderr, "contacts:")
	fmt.Fprintln(os.Stderr, "  search <email>                Find a user by email")
	fmt.Fprintln(os.Stderr, "  add <email|username>          Send a contact request")
	fmt.Fprintln(os.Stderr, "  accept <request-id>           Accept a request")
	fmt.Fprintln(os.Stderr, "  remove <request-id>           Remove a contact or request")
	fmt.Fprintln(os.Stderr, "  friends                       List contacts")
	fmt.Fprintln(os.Stderr, "  requests                      List pending requests")
	fmt.Fprintln(os.Stderr, "messages:")
	fmt.Fprintln(os.Stderr, "  chats                         List conversations")
	fmt.Fprintln(os.Stderr, "  send [--file f] <user> <text> Send a private message")
	fmt.Fprintln(os.Stderr, "  history <user> [limit]        Show a conversation")
	fmt.Fprintln(os.Stderr, "  global send <text>            Post to the global room")
	fmt.Fprintln(os.Stderr, "  global list [limit]           Read the global room")
	fmt.Fprintln(os.Stderr, "  read <user>                   Mark a conversation read")
	fmt.Fprintln(os.Stderr, "  unread <user>                 Count unread messages")
	fmt.Fprintln(os.Stderr, "  find <text>                   Search messages")
	fmt.Fprintln(os.Stderr, "  online                        Count online users")
	fmt.Fprintln(os.Stderr, "  watch [prefix]                Stream live events")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func need(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintln(os.Stderr, "usage: chatrisectl "+usage)
		os.Exit(1)
	}
}

func optInt(args []string, i int) int {
	if len(args) <= i {
		return 0
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		fail(fmt.Errorf("invalid number %q", args[i]))
	}
	return n
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}

func readPassword(prompt string) string {
	if pw := os.Getenv("CHATRISE_PASSWORD"); pw != "" {
		return pw
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fail(fmt.Errorf("read password: %w", err))
	}
	return string(b)
}

func formatTime(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}

// inviteURL is the payload of the contact QR code.
func inviteURL(email string) string {
	return "chatrise:add?" + url.Values{"email": {email}}.Encode()
}

type command struct {
	c       *client.Client
	profile string
}

// resolveUser accepts a user id or a username.
func (x *command) resolveUser(ctx context.Context, arg string) string {
	if _, err := uuid.Parse(arg); err == nil {
		return arg
	}
	resp, err := x.c.Profile.ListUsers(ctx, &rpc.ListUsersRequest{Limit: 1000})
	if err != nil {
		fail(err)
	}
	for _, u := range resp.Users {
		if u.Username == arg {
			return u.ID
		}
	}
	fail(fmt.Errorf("no user named %q", arg))
	return ""
}

func (x *command) saveSession(resp *rpc.AuthResponse) {
	if err := session.SaveToken(x.profile, resp.Token); err != nil {
		fail(fmt.Errorf("save token: %w", err))
	}
	if jsonOut {
		outputJSON(resp.User)
		return
	}
	fmt.Printf("Logged in as %s (%s)\n", resp.User.Username, resp.User.ID)
}

func (x *command) register(ctx context.Context, username, email string) {
	pw := readPassword("Password: ")
	resp, err := x.c.Auth.Register(ctx, &rpc.RegisterRequest{Username: username, Email: email, Password: pw})
	if err != nil {
		fail(err)
	}
	x.saveSession(resp)
}

func (x *command) login(ctx context.Context, identifier string) {
	pw := readPassword("Password: ")
	resp, err := x.c.Auth.Login(ctx, &rpc.LoginRequest{Identifier: identifier, Password: pw})
	if err != nil {
		fail(err)
	}
	x.saveSession(resp)
}

func (x *command) logout(ctx context.Context) {
	if _, err := x.c.Auth.Logout(ctx, &rpc.Empty{}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if err := session.ClearToken(x.profile); err != nil {
		fail(err)
	}
	fmt.Println("Logged out.")
}

func (x *command) profileOf(ctx context.Context, id string) {
	p, err := x.c.Profile.GetProfile(ctx, &rpc.UserRequest{UserID: id})
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(p)
		return
	}
	status := "offline, last seen " + formatTime(p.LastSeen)
	if p.IsOnline {
		status = "online"
	}
	fmt.Printf("Username: %s\n", p.Username)
	fmt.Printf("ID:       %s\n", p.ID)
	if p.Email != "" {
		fmt.Printf("Email:    %s\n", p.Email)
	}
	fmt.Printf("Status:   %s\n", status)
	if p.Description != "" {
		fmt.Printf("About:    %s\n", p.Description)
	}
	if p.AvatarURL != "" {
		fmt.Printf("Avatar:   %s\n", p.AvatarURL)
	}
	if p.JoinedAt != 0 {
		fmt.Printf("Joined:   %s\n", formatTime(p.JoinedAt))
	}
}

func (x *command) update(ctx context.Context, field, value, currentPassword string) {
	req := &rpc.UpdateProfileRequest{Field: field, Value: value, CurrentPassword: currentPassword}
	if _, err := x.c.Profile.UpdateProfile(ctx, req); err != nil {
		fail(err)
	}
	fmt.Printf("Updated %s.\n", field)
}

func (x *command) setPassword(ctx context.Context) {
	current := readPassword("Current password: ")
	next := readPassword("New password: ")
	if _, err := x.c.Auth.ChangePassword(ctx, &rpc.ChangePasswordRequest{Current: current, New: next}); err != nil {
		fail(err)
	}
	fmt.Println("Password changed. Other sessions were signed out.")
}

func (x *command) avatar(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fail(err)
	}
	resp, err := x.c.Profile.UploadAvatar(ctx, &rpc.UploadRequest{Name: path, Data: data})
	if err != nil {
		fail(err)
	}
	fmt.Printf("Avatar uploaded: %s\n", resp.URL)
}

func (x *command) users(ctx context.Context) {
	resp, err := x.c.Profile.ListUsers(ctx, &rpc.ListUsersRequest{})
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp.Users)
		return
	}
	for _, u := range resp.Users {
		mark := " "
		if u.IsOnline {
			mark = "*"
		}
		fmt.Printf("%s %-24s %s\n", mark, u.Username, u.ID)
	}
}

func (x *command) search(ctx context.Context, email string) {
	resp, err := x.c.Contact.SearchByEmail(ctx, &rpc.SearchByEmailRequest{Email: email})
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("%s (%s): %s\n", resp.Profile.Username, resp.Profile.ID, resp.Relationship.State)
}

func (x *command) add(ctx context.Context, target string) {
	req := &rpc.SendRequestRequest{Email: target}
	if !strings.Contains(target, "@") {
		req = &rpc.SendRequestRequest{UserID: x.resolveUser(ctx, target)}
	}
	resp, err := x.c.Contact.SendRequest(ctx, req)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Request sent: %s\n", resp.RequestID)
}

func (x *command) accept(ctx context.Context, id string) {
	if _, err := x.c.Contact.AcceptRequest(ctx, &rpc.RequestIDRequest{RequestID: id}); err != nil {
		fail(err)
	}
	fmt.Println("Request accepted.")
}

func (x *command) remove(ctx context.Context, id string) {
	if _, err := x.c.Contact.RemoveRelationship(ctx, &rpc.RequestIDRequest{RequestID: id}); err != nil {
		fail(err)
	}
	fmt.Println("Removed.")
}

func (x *command) friends(ctx context.Context) {
	resp, err := x.c.Contact.ListFriends(ctx, &rpc.Empty{})
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp.Friends)
		return
	}
	if len(resp.Friends) == 0 {
		fmt.Println("No contacts yet.")
		return
	}
	for _, f := range resp.Friends {
		status := "last seen " + formatTime(f.LastSeen)
		if f.IsOnline {
			status = "online"
		}
		fmt.Printf("%-24s %-20s request %s\n", f.Username, status, f.RequestID)
	}
}

func (x *command) requests(ctx context.Context) {
	in, err := x.c.Contact.ListIncoming(ctx, &rpc.Empty{})
	if err != nil {
		fail(err)
	}
	out, err := x.c.Contact.ListOutgoing(ctx, &rpc.Empty{})
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(map[string]any{"incoming": in.Requests, "outgoing": out.Requests})
		return
	}
	fmt.Println("Incoming:")
	for _, r := range in.Requests {
		fmt.Printf("  %-24s %s  %s\n", r.Username, formatTime(r.CreatedAt), r.RequestID)
	}
	fmt.Println("Outgoing:")
	for _, r := range out.Requests {
		fmt.Printf("  %-24s %s  %s\n", r.Username, formatTime(r.CreatedAt), r.RequestID)
	}
}

func (x *command) chats(ctx context.Context) {
	resp, err := x.c.Chat.ListChats(ctx, &rpc.Empty{})
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp.Chats)
		return
	}
	if len(resp.Chats) == 0 {
		fmt.Println("No chats.")
		return
	}
	for _, ch := range resp.Chats {
		unread := ""
		if ch.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d)", ch.UnreadCount)
		}
		fmt.Printf("%-20s%-6s %s  %s\n", ch.PartnerName, unread, formatTime(ch.LastMessageAt), ch.LastMessageBody)
	}
}

func (x *command) send(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	file := fs.String("file", "", "attach a file")
	_ = fs.Parse(args)
	rest := fs.Args()
	need(append([]string{"send"}, rest...), 2, "send [--file f] <user> <text>")

	req := &rpc.SendPrivateRequest{
		RecipientID: x.resolveUser(ctx, rest[0]),
		Body:        strings.Join(rest[1:], " "),
	}
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			fail(err)
		}
		att, err := x.c.Message.UploadAttachment(ctx, &rpc.UploadRequest{Name: *file, Data: data})
		if err != nil {
			fail(err)
		}
		req.Attachment = att
	}
	resp, err := x.c.Message.SendPrivate(ctx, req)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Sent: %s\n", resp.MessageID)
}

func printMessages(msgs []rpc.Message) {
	if jsonOut {
		outputJSON(msgs)
		return
	}
	for _, m := range msgs {
		body := m.Body
		if m.Attachment != nil {
			body = strings.TrimSpace(body + " [" + m.Attachment.Name + " " + m.Attachment.URL + "]")
		}
		fmt.Printf("[%s] %s: %s\n", formatTime(m.SentAt), m.SenderName, body)
	}
}

func (x *command) history(ctx context.Context, user string, limit int) {
	resp, err := x.c.Message.ListConversation(ctx, &rpc.ListConversationRequest{PartnerID: x.resolveUser(ctx, user), Limit: limit})
	if err != nil {
		fail(err)
	}
	printMessages(resp.Messages)
}

func (x *command) global(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: chatrisectl global <send|list>")
		os.Exit(1)
	}
	switch args[0] {
	case "send":
		need(args, 2, "global send <text>")
		resp, err := x.c.Message.SendGlobal(ctx, &rpc.SendGlobalRequest{Body: strings.Join(args[1:], " ")})
		if err != nil {
			fail(err)
		}
		fmt.Printf("Sent: %s\n", resp.MessageID)
	case "list":
		resp, err := x.c.Message.ListGlobal(ctx, &rpc.ListGlobalRequest{Limit: optInt(args, 1)})
		if err != nil {
			fail(err)
		}
		printMessages(resp.Messages)
	default:
		fmt.Fprintf(os.Stderr, "unknown global subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func (x *command) read(ctx context.Context, user string) {
	if _, err := x.c.Message.MarkRead(ctx, &rpc.MarkReadRequest{SenderID: x.resolveUser(ctx, user)}); err != nil {
		fail(err)
	}
	fmt.Println("Marked read.")
}

func (x *command) unread(ctx context.Context, user string) {
	resp, err := x.c.Message.UnreadCount(ctx, &rpc.UnreadCountRequest{SenderID: x.resolveUser(ctx, user)})
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Println(resp.Count)
}

func (x *command) find(ctx context.Context, query string) {
	resp, err := x.c.Message.Search(ctx, &rpc.SearchRequest{Query: query})
	if err != nil {
		fail(err)
	}
	printMessages(resp.Messages)
}

func (x *command) online(ctx context.Context) {
	resp, err := x.c.Presence.OnlineCount(ctx, &rpc.Empty{})
	if err != nil {
		fail(err)
	}
	if jsonOut {
		outputJSON(resp)
		return
	}
	fmt.Printf("%d online\n", resp.Count)
}

func (x *command) qr(ctx context.Context) {
	me, err := x.c.Auth.WhoAmI(ctx, &rpc.Empty{})
	if err != nil {
		fail(err)
	}
	qr, err := qrcode.New(inviteURL(me.Email), qrcode.Low)
	if err != nil {
		fail(err)
	}
	fmt.Print(qr.ToSmallString(false))
	fmt.Printf("Scan to add %s\n", me.Username)
}

func (x *command) watch(ctx context.Context, args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	stream, err := x.c.Chat.WatchEvents(ctx, &rpc.WatchRequest{Prefix: prefix})
	if err != nil {
		fail(err)
	}
	for {
		evt, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fail(err)
		}
		if jsonOut {
			outputJSON(evt)
			continue
		}
		ts := time.UnixMilli(evt.Timestamp).Local().Format("15:04:05")
		switch {
		case evt.Message != nil:
			fmt.Printf("%s %s %s: %s\n", ts, evt.Kind, evt.Message.SenderName, evt.Message.Body)
		case evt.Contact != nil:
			fmt.Printf("%s %s request %s\n", ts, evt.Kind, evt.Contact.RequestID)
		case evt.Presence != nil:
			fmt.Printf("%s %s %s online=%v\n", ts, evt.Kind, evt.Presence.UserID, evt.Presence.Online)
		case evt.Read != nil:
			fmt.Printf("%s %s %d from %s\n", ts, evt.Kind, evt.Read.Count, evt.Read.SenderID)
		default:
			fmt.Printf("%s %s\n", ts, evt.Kind)
		}
	}
}
