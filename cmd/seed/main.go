// Package main provides a CLI tool that creates the search schema and
// seeds one organization with demo content.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cmsearch/internal/config"
	"cmsearch/internal/core/id"
	"cmsearch/internal/domain/auth"
	"cmsearch/internal/infrastructure/storage/postgres"
	"cmsearch/pkg/logger"
)

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	orgFlag := flag.String("org", "", "organization id to seed (generated when empty)")
	postCount := flag.Int("posts", 200, "number of posts to generate")
	password := flag.String("password", "Admin123!", "password for seeded users")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := seed(context.Background(), *configPath, *orgFlag, *postCount, *password, log); err != nil {
		log.Errorw("seeding failed", "error", err)
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("seeding completed successfully")
}

func seed(ctx context.Context, configPath, orgFlag string, postCount int, password string, log *logger.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	orgID := id.New()
	if orgFlag != "" {
		if orgID, err = id.Parse(orgFlag); err != nil {
			return fmt.Errorf("invalid -org: %w", err)
		}
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var existing int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM posts WHERE organization_id = $1`, orgID).Scan(&existing); err != nil {
		return fmt.Errorf("check existing data: %w", err)
	}
	if existing > 0 {
		log.Infow("organization already seeded", "organization_id", orgID, "posts", existing)
	} else {
		s := newSeeder(orgID, password, rand.New(rand.NewPCG(1, 2)))
		if err := s.run(ctx, pool, postCount, log); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	printTokens(cfg, orgID, log)
	return nil
}

type seeder struct {
	orgID    id.ID
	password string
	rnd      *rand.Rand
	now      int64

	userIDs  []id.ID
	priceID  id.ID
	colorID  id.ID
	mediaIDs []id.ID
}

func newSeeder(orgID id.ID, password string, rnd *rand.Rand) *seeder {
	return &seeder{
		orgID:    orgID,
		password: password,
		rnd:      rnd,
		now:      time.Now().Unix(),
		priceID:  id.New(),
		colorID:  id.New(),
	}
}

func (s *seeder) run(ctx context.Context, pool *postgres.Pool, posts int, log *logger.Logger) error {
	users, err := s.users()
	if err != nil {
		return err
	}

	n, err := postgres.LoadTables(ctx, pool,
		users,
		s.customFields(),
		s.taxonomies(),
		s.media(),
	)
	if err != nil {
		return err
	}
	log.Infow("fixtures loaded", "rows", n)

	postRows := make(chan []any, 100)
	valueRows := make(chan []any, 200)
	postIDs := make([]id.ID, 0, posts)

	go func() {
		defer close(postRows)
		for i := range posts {
			postID := id.New()
			postIDs = append(postIDs, postID)
			postRows <- s.post(i, postID)
		}
	}()
	n, err = postgres.CopyStream(ctx, pool, "posts", postColumns, postRows)
	if err != nil {
		return err
	}
	log.Infow("posts generated", "rows", n)

	go func() {
		defer close(valueRows)
		colors := []string{"red", "green", "blue"}
		for i, postID := range postIDs {
			// every fifth post has no price; every seventh carries junk
			switch {
			case i%5 == 0:
			case i%7 == 0:
				valueRows <- []any{id.New(), postID, s.priceID, "call us"}
			default:
				valueRows <- []any{id.New(), postID, s.priceID, strconv.Itoa(10 + s.rnd.IntN(90))}
			}
			valueRows <- []any{id.New(), postID, s.colorID, colors[i%len(colors)]}
		}
	}()
	n, err = postgres.CopyStream(ctx, pool, "post_custom_field_values",
		[]string{"id", "post_id", "custom_field_id", "value"}, valueRows)
	if err != nil {
		return err
	}
	log.Infow("custom field values generated", "rows", n)
	return nil
}

func (s *seeder) users() (postgres.TableRows, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
	if err != nil {
		return postgres.TableRows{}, fmt.Errorf("hash password: %w", err)
	}

	t := postgres.TableRows{
		Table:   "users",
		Columns: []string{"id", "name", "email", "password_hash", "email_verified", "created_at", "updated_at"},
	}
	for i, name := range []string{"Ada Admin", "Eddie Editor", "Wanda Writer"} {
		uid := id.New()
		s.userIDs = append(s.userIDs, uid)
		email := fmt.Sprintf("user%d+%s@example.com", i+1, s.orgID.String()[:8])
		t.Rows = append(t.Rows, []any{uid, name, email, string(hash), i != 2, s.now, s.now})
	}
	return t, nil
}

type customFieldRow struct {
	ID             id.ID  `db:"id"`
	OrganizationID id.ID  `db:"organization_id"`
	Slug           string `db:"slug"`
	Name           string `db:"name"`
	FieldType      string `db:"field_type"`
}

func (s *seeder) customFields() postgres.TableRows {
	return postgres.TableRowsOf("custom_fields", []customFieldRow{
		{ID: s.priceID, OrganizationID: s.orgID, Slug: "price", Name: "Price", FieldType: "number"},
		{ID: s.colorID, OrganizationID: s.orgID, Slug: "color", Name: "Color", FieldType: "text"},
	})
}

func (s *seeder) taxonomies() postgres.TableRows {
	t := postgres.TableRows{
		Table:   "taxonomies",
		Columns: []string{"id", "organization_id", "name", "slug", "description", "parent_id", "created_at", "updated_at"},
	}
	rootID := id.New()
	t.Rows = append(t.Rows, []any{rootID, s.orgID, "Topics", "topics", "All topics", nil, s.now, s.now})
	for _, name := range []string{"Go", "Databases", "Search", "Release Notes"} {
		t.Rows = append(t.Rows, []any{id.New(), s.orgID, name, slugify(name), nil, rootID, s.now, s.now})
	}
	return t
}

func (s *seeder) media() postgres.TableRows {
	t := postgres.TableRows{
		Table: "media",
		Columns: []string{"id", "organization_id", "filename", "original_filename", "mime_type", "file_size",
			"width", "height", "alt_text", "caption", "url", "uploaded_by", "created_at", "updated_at"},
	}
	files := []struct {
		name, mime    string
		width, height any
	}{
		{"cover.jpg", "image/jpeg", 1920, 1080},
		{"diagram.png", "image/png", 800, 600},
		{"logo.svg", "image/svg+xml", nil, nil},
		{"handbook.pdf", "application/pdf", nil, nil},
	}
	for i, f := range files {
		mid := id.New()
		s.mediaIDs = append(s.mediaIDs, mid)
		t.Rows = append(t.Rows, []any{
			mid, s.orgID, mid.String() + "-" + f.name, f.name, f.mime, int64(10_000 * (i + 1)),
			f.width, f.height, "Alt for " + f.name, nil,
			"/uploads/" + mid.String() + "-" + f.name, s.userIDs[0], s.now - int64(i*3600), s.now,
		})
	}
	return t
}

var postColumns = []string{
	"id", "organization_id", "title", "slug", "content", "excerpt", "status", "author_id",
	"parent_id", "featured_image_id", "published_at", "created_at", "updated_at",
}

var postStatuses = []string{"published", "published", "draft", "archived"}

func (s *seeder) post(i int, postID id.ID) []any {
	status := postStatuses[i%len(postStatuses)]
	created := s.now - int64(i)*3600

	var publishedAt, featured any
	if status == "published" {
		publishedAt = created + 600
	}
	if i%3 == 0 {
		featured = s.mediaIDs[i%len(s.mediaIDs)]
	}

	title := fmt.Sprintf("%s #%d", topics[i%len(topics)], i+1)
	return []any{
		postID, s.orgID, title, slugify(title),
		"Body of " + title + ". Filters, sorts and cursors.",
		"Excerpt " + strconv.Itoa(i+1),
		status, s.userIDs[i%len(s.userIDs)], nil, featured, publishedAt, created, created,
	}
}

var topics = []string{"Getting started with Go", "Keyset pagination", "EAV in practice", "Release notes"}

func slugify(s string) string {
	out := make([]rune, 0, len(s))
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
			dash = false
		case r >= 'A' && r <= 'Z':
			out = append(out, r+'a'-'A')
			dash = false
		case !dash && len(out) > 0:
			out = append(out, '-')
			dash = true
		}
	}
	if dash {
		out = out[:len(out)-1]
	}
	return string(out)
}

// printTokens issues tokens for trying the API against the seeded data.
func printTokens(cfg *config.Config, orgID id.ID, log *logger.Logger) {
	jwtCfg := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
	jwtCfg.Issuer = cfg.Auth.Issuer
	jwtCfg.AccessTokenTTL = 24 * time.Hour
	svc := auth.NewJWTService(jwtCfg)

	specs := map[string]auth.TokenSpec{
		"session":         {UserID: "seed-admin", OrganizationID: orgID},
		"published_only":  {UserID: "seed-key", OrganizationID: orgID, APIKey: true, Scopes: []string{"posts:read:published", "media:read"}},
		"posts_full_read": {UserID: "seed-key-full", OrganizationID: orgID, APIKey: true, Scopes: []string{"posts:read"}},
	}
	for name, spec := range specs {
		token, _, err := svc.GenerateAccessToken(spec)
		if err != nil {
			log.Warnw("failed to issue token", "name", name, "error", err)
			continue
		}
		log.Infow("token issued", "name", name, "organization_id", orgID, "token", token)
	}
}
