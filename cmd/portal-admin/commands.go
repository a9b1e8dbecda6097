package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sbx-training/portal/internal/bootstrap"
	"github.com/sbx-training/portal/internal/data"
	domainauth "github.com/sbx-training/portal/internal/domain/auth"
	"github.com/sbx-training/portal/internal/domain/model"
	"github.com/sbx-training/portal/internal/migrate"
	"github.com/sbx-training/portal/internal/service"
)

const defaultMigrationTimeout = 5 * time.Minute

func connectDB(cmdCtx *commandContext) (*sql.DB, func(), error) {
	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}
	return db, func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}, nil
}

func runMigrate(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("migrate")
	timeout := fs.Duration("timeout", defaultMigrationTimeout, "maximum time to spend applying migrations")
	dryRun := fs.Bool("dry-run", false, "list pending migrations without applying them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, *timeout)
	defer cancel()

	db, closeDB, err := connectDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB()

	if *dryRun {
		pending, pendingErr := migrate.Pending(ctx, db)
		if pendingErr != nil {
			return fmt.Errorf("list pending migrations: %w", pendingErr)
		}
		if len(pending) == 0 {
			return writeln(cmdCtx.Out, "database is up to date")
		}
		for _, v := range pending {
			if werr := writef(cmdCtx.Out, "pending %s\n", v); werr != nil {
				return werr
			}
		}
		return nil
	}

	cmdCtx.Logger.Info("running database migrations")
	return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
}

func runSyncStaff(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("sync-staff")
	asJSON := fs.Bool("json", false, "print the report as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cmdCtx.Config.Directory.Validate(cmdCtx.Config.IsDev); err != nil {
		return err
	}

	db, closeDB, err := connectDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB()

	// Bulk sync never redeems handshakes, so it runs without Redis.
	cfg := cmdCtx.Config
	cfg.SSO.ReplayProtection = false
	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{Config: &cfg, DB: db, Logger: cmdCtx.Logger})
	if err != nil {
		return err
	}

	report, syncErr := services.StaffSync.Sync(cmdCtx.Ctx)
	if printErr := printSyncReport(cmdCtx.Out, report, *asJSON); printErr != nil {
		return errors.Join(syncErr, printErr)
	}
	return syncErr
}

func printSyncReport(w io.Writer, report service.StaffSyncReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := []struct {
		label string
		n     int
	}{
		{"Fetched", report.Fetched},
		{"Created", report.Created},
		{"Updated", report.Updated},
		{"Unchanged", report.Unchanged},
		{"Failed", report.Failed},
	}
	if err := writeln(tw, "Metric\tCount"); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	for _, r := range rows {
		if err := writef(tw, "%s\t%d\n", r.label, r.n); err != nil {
			return fmt.Errorf("write report row %q: %w", r.label, err)
		}
	}
	return tw.Flush()
}

func runListUsers(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("list-users")
	limit := fs.Int("limit", 50, "maximum number of users to print")
	offset := fs.Int("offset", 0, "number of users to skip")
	query := fs.StringP("query", "q", "", "substring match on name or email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, closeDB, err := connectDB(cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB()

	opts := model.UsersListOptions{Limit: *limit, Offset: *offset}
	if q := strings.TrimSpace(*query); q != "" {
		opts.Q = &q
	}
	users, err := data.NewUserRepo(db).List(cmdCtx.Ctx, opts)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	return printUsers(cmdCtx.Out, users)
}

func printUsers(w io.Writer, users []*model.User) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "ID\tName\tEmail\tRoles\tActive\tCreated"); err != nil {
		return fmt.Errorf("write users header: %w", err)
	}
	for _, u := range users {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
			u.ID, u.Name, u.Email, strings.Join(u.Roles, ","), u.Active,
			u.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("write user %s: %w", u.ID, err)
		}
	}
	return tw.Flush()
}

// handshakeRequest describes a handshake URL to sign.
type handshakeRequest struct {
	BaseURL    string
	Path       string
	Secret     string
	ExternalID string
	Username   string
	IssuedAt   time.Time
}

func runSignHandshake(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("sign-handshake")
	id := fs.String("id", "", "external id the host would send (required)")
	user := fs.String("user", "", "username the host would send (required)")
	at := fs.Int64("time", 0, "unix issue time (default now)")
	base := fs.String("base-url", cmdCtx.Config.HTTP.BaseURL, "portal base URL")
	path := fs.String("path", "/dashboard", "page the host iframe points at")
	if err := fs.Parse(args); err != nil {
		return err
	}

	issuedAt := time.Now()
	if *at > 0 {
		issuedAt = time.Unix(*at, 0)
	}
	link, err := buildHandshakeURL(handshakeRequest{
		BaseURL:    *base,
		Path:       *path,
		Secret:     cmdCtx.Config.SSO.SharedSecret,
		ExternalID: *id,
		Username:   *user,
		IssuedAt:   issuedAt,
	})
	if err != nil {
		return err
	}
	return writeln(cmdCtx.Out, link)
}

func buildHandshakeURL(req handshakeRequest) (string, error) {
	if req.ExternalID == "" || req.Username == "" {
		return "", errors.New("--id and --user are required")
	}
	if req.Secret == "" {
		return "", errors.New("SBX_SHARED_SECRET is not set")
	}
	u, err := url.Parse(strings.TrimRight(req.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid base url %q", req.BaseURL)
	}
	u.Path = "/" + strings.TrimLeft(req.Path, "/")

	ts := strconv.FormatInt(req.IssuedAt.Unix(), 10)
	q := url.Values{}
	q.Set(domainauth.ParamSignature, service.ExpectedSignature(req.Secret, ts, req.ExternalID))
	q.Set(domainauth.ParamIssuedAt, ts)
	q.Set(domainauth.ParamExternalID, req.ExternalID)
	q.Set(domainauth.ParamUsername, req.Username)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
