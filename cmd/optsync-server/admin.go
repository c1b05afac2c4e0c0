package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/marcus/optsync/internal/api"
	"github.com/marcus/optsync/internal/dateparse"
	"github.com/marcus/optsync/internal/output"
	"github.com/marcus/optsync/internal/serverdb"
	"github.com/spf13/pflag"
)

func runAdmin(args []string) {
	if len(args) == 0 {
		printAdminUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "create-user":
		runAdminCreateUser(args[1:])
	case "create-key":
		runAdminCreateKey(args[1:])
	case "revoke-key":
		runAdminRevokeKey(args[1:])
	case "list-users":
		runAdminListUsers(args[1:])
	case "list-keys":
		runAdminListKeys(args[1:])
	case "history":
		runAdminHistory(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown admin command: %s\n", args[0])
		printAdminUsage()
		os.Exit(1)
	}
}

func printAdminUsage() {
	fmt.Fprintln(os.Stderr, `Usage: optsync-server admin <command> [flags]

Commands:
  create-user  Create a user
  create-key   Create an API key for a user
  revoke-key   Revoke an API key
  list-users   List users
  list-keys    List a user's API keys
  history      Show recent option changes`)
}

func newFlagSet(name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet("admin "+name, pflag.ExitOnError)
	dbPath := fs.String("db", "", "path to server.db (default: from OPTSYNC_SERVER_DB_PATH or ./data/server.db)")
	return fs, dbPath
}

func openDB(dbPath string) *serverdb.ServerDB {
	if dbPath == "" {
		dbPath = api.LoadConfig().ServerDBPath
	}
	store, err := serverdb.Open(dbPath)
	if err != nil {
		fatalf("open database: %v", err)
	}
	return store
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func requireFlag(fs *pflag.FlagSet, name, value string) {
	if value == "" {
		fmt.Fprintf(os.Stderr, "error: --%s is required\n", name)
		fs.Usage()
		os.Exit(1)
	}
}

func lookupUser(store *serverdb.ServerDB, email string) *serverdb.User {
	user, err := store.GetUserByEmail(email)
	if err != nil {
		fatalf("%v", err)
	}
	if user == nil {
		fatalf("user not found: %s", email)
	}
	return user
}

func runAdminCreateUser(args []string) {
	fs, dbPath := newFlagSet("create-user")
	email := fs.String("email", "", "user email address")
	fs.Parse(args)
	requireFlag(fs, "email", *email)

	store := openDB(*dbPath)
	defer store.Close()

	user, err := store.CreateUser(*email)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("created user %s (%s)\n", user.Email, user.ID)
}

func runAdminCreateKey(args []string) {
	fs, dbPath := newFlagSet("create-key")
	email := fs.String("email", "", "user email address")
	name := fs.String("name", "", "key name (e.g. laptop)")
	caps := fs.StringSlice("caps", nil, "capabilities (settings:view, settings:configure, admin)")
	expires := fs.Duration("expires", 0, "key lifetime (e.g. 720h); zero never expires")
	fs.Parse(args)
	requireFlag(fs, "email", *email)
	requireFlag(fs, "name", *name)

	capStr := serverdb.DefaultCapabilities
	if len(*caps) > 0 {
		normalized, err := api.ValidateCapabilities(strings.Join(*caps, ","))
		if err != nil {
			fatalf("%v", err)
		}
		capStr = normalized
	}

	var expiresAt *time.Time
	if *expires > 0 {
		t := time.Now().UTC().Add(*expires)
		expiresAt = &t
	}

	store := openDB(*dbPath)
	defer store.Close()

	user := lookupUser(store, *email)
	plaintext, ak, err := store.GenerateAPIKey(user.ID, *name, capStr, expiresAt)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("created API key for %s\n", user.Email)
	fmt.Printf("  name:         %s\n", ak.Name)
	fmt.Printf("  capabilities: %s\n", ak.Capabilities)
	if ak.ExpiresAt != nil {
		fmt.Printf("  expires:      %s\n", ak.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Printf("  key:          %s\n", plaintext)
	fmt.Println("\nSave this key now -- it will not be shown again.")
}

func runAdminRevokeKey(args []string) {
	fs, dbPath := newFlagSet("revoke-key")
	email := fs.String("email", "", "key owner email address")
	id := fs.String("id", "", "API key ID")
	fs.Parse(args)
	requireFlag(fs, "email", *email)
	requireFlag(fs, "id", *id)

	store := openDB(*dbPath)
	defer store.Close()

	user := lookupUser(store, *email)
	if err := store.RevokeAPIKey(*id, user.ID); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("revoked key %s\n", *id)
}

func runAdminListUsers(args []string) {
	fs, dbPath := newFlagSet("list-users")
	fs.Parse(args)

	store := openDB(*dbPath)
	defer store.Close()

	users, err := store.ListUsers()
	if err != nil {
		fatalf("%v", err)
	}
	if len(users) == 0 {
		fmt.Println("no users")
		return
	}
	for _, u := range users {
		fmt.Printf("%-20s %-32s created %s\n", u.ID, u.Email, output.FormatTimeAgo(u.CreatedAt))
	}
}

func runAdminListKeys(args []string) {
	fs, dbPath := newFlagSet("list-keys")
	email := fs.String("email", "", "key owner email address")
	fs.Parse(args)
	requireFlag(fs, "email", *email)

	store := openDB(*dbPath)
	defer store.Close()

	user := lookupUser(store, *email)
	keys, err := store.ListAPIKeys(user.ID)
	if err != nil {
		fatalf("%v", err)
	}
	if len(keys) == 0 {
		fmt.Printf("%s has no API keys\n", user.Email)
		return
	}
	now := time.Now().UTC()
	for _, k := range keys {
		used := "never used"
		if k.LastUsedAt != nil {
			used = "used " + output.FormatTimeAgo(*k.LastUsedAt)
		}
		if k.Expired(now) {
			used += ", expired"
		}
		fmt.Printf("%-20s %-16s %s...  %-36s %s\n", k.ID, k.Name, k.KeyPrefix, k.Capabilities, used)
	}
}

func runAdminHistory(args []string) {
	fs, dbPath := newFlagSet("history")
	name := fs.String("name", "", "only show changes to this option")
	since := fs.String("since", "", "only show changes since (e.g. 2026-03-01, 7d, yesterday, monday)")
	limit := fs.Int("limit", 20, "maximum number of changes")
	fs.Parse(args)

	q := serverdb.ChangeQuery{Name: *name, Limit: *limit}
	if *since != "" {
		t, err := dateparse.ParseSince(*since)
		if err != nil {
			fatalf("%v", err)
		}
		q.Since = t
	}

	store := openDB(*dbPath)
	defer store.Close()

	changes, err := store.ListOptionChanges(q)
	if err != nil {
		fatalf("%v", err)
	}
	if len(changes) == 0 {
		fmt.Println("no changes recorded")
		return
	}
	for _, ch := range changes {
		old := "(unset)"
		if ch.OldValue != nil {
			old = ch.OldValue.String()
		}
		fmt.Printf("%-10s %-24s %q -> %q  by %s\n",
			output.FormatTimeAgo(ch.ChangedAt), ch.Name, old, ch.NewValue.String(), ch.UserID)
	}
}
