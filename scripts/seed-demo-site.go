package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var tables = []string{
	`CREATE TABLE %susers (ID INTEGER PRIMARY KEY, user_login TEXT NOT NULL, user_email TEXT NOT NULL)`,
	`CREATE TABLE %susermeta (umeta_id INTEGER PRIMARY KEY AUTOINCREMENT, user_id INTEGER NOT NULL, meta_key TEXT, meta_value TEXT)`,
	`CREATE TABLE %soptions (option_id INTEGER PRIMARY KEY AUTOINCREMENT, option_name TEXT NOT NULL UNIQUE, option_value TEXT NOT NULL, autoload TEXT NOT NULL DEFAULT 'yes')`,
	`CREATE TABLE %sposts (ID INTEGER PRIMARY KEY, post_type TEXT NOT NULL, post_title TEXT NOT NULL)`,
	`CREATE TABLE %spostmeta (meta_id INTEGER PRIMARY KEY AUTOINCREMENT, post_id INTEGER NOT NULL, meta_key TEXT, meta_value TEXT)`,
}

var statuses = []string{"approved", "approved", "approved", "awaiting_email_confirmation", "awaiting_admin_review", "rejected", "inactive"}

var cities = []string{"Lisbon", "Austin", "Osaka", "Nairobi", "Toronto"}

func main() {
	var (
		out    = flag.String("out", "demo-site.db", "SQLite file to create")
		prefix = flag.String("prefix", "wp_", "WordPress table prefix")
		users  = flag.Int("users", 250, "Number of Ultimate Member users")
		posts  = flag.Int("posts", 20, "Number of restricted posts")
	)
	flag.Parse()

	if err := os.Remove(*out); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove %s: %v", *out, err)
	}
	db, err := gorm.Open(sqlite.Open(*out), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	for _, stmt := range tables {
		must(db.Exec(fmt.Sprintf(stmt, *prefix)))
	}

	rng := rand.New(rand.NewSource(42))
	err = db.Transaction(func(tx *gorm.DB) error {
		must(tx.Exec("INSERT INTO "+*prefix+"options (option_name, option_value) VALUES (?, ?), (?, ?)",
			"siteurl", "https://demo.example",
			"active_plugins", `a:1:{i:0;s:35:"ultimate-member/ultimate-member.php";}`))
		must(tx.Exec("INSERT INTO "+*prefix+"options (option_name, option_value) VALUES (?, ?), (?, ?)",
			*prefix+"user_roles", roles(),
			"um_role_vip_meta", `a:1:{s:12:"_um_priority";s:2:"10";}`))

		for id := 1; id <= *users; id++ {
			login := fmt.Sprintf("member%04d", id)
			must(tx.Exec("INSERT INTO "+*prefix+"users (ID, user_login, user_email) VALUES (?, ?, ?)", id, login, login+"@demo.example"))
			meta := [][2]string{
				{"account_status", statuses[rng.Intn(len(statuses))]},
				{"phone_number", fmt.Sprintf("+1 555 %04d", rng.Intn(10000))},
				{"city", cities[rng.Intn(len(cities))]},
				{"description", "Member since <b>2019</b>"},
				{"birth_date", fmt.Sprintf("%02d/%02d/19%02d", 1+rng.Intn(12), 1+rng.Intn(28), 60+rng.Intn(40))},
				{"_um_last_login", fmt.Sprint(1700000000 + rng.Intn(10000000))},
			}
			if id%7 == 0 {
				meta = append(meta, [2]string{"favorite_color", []string{"teal", "amber", "plum"}[rng.Intn(3)]})
			}
			for _, kv := range meta {
				must(tx.Exec("INSERT INTO "+*prefix+"usermeta (user_id, meta_key, meta_value) VALUES (?, ?, ?)", id, kv[0], kv[1]))
			}
		}

		for id := 1; id <= *posts; id++ {
			postType := "post"
			if id%3 == 0 {
				postType = "page"
			}
			must(tx.Exec("INSERT INTO "+*prefix+"posts (ID, post_type, post_title) VALUES (?, ?, ?)", id, postType, fmt.Sprintf("Members post %d", id)))
			must(tx.Exec("INSERT INTO "+*prefix+"postmeta (post_id, meta_key, meta_value) VALUES (?, ?, ?)", id, "um_content_restriction", restriction(id)))
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}

	fmt.Printf("✓ Generated %s\n", *out)
	fmt.Printf("  - Users: %d\n", *users)
	fmt.Printf("  - Restricted posts: %d\n", *posts)
}

func must(tx *gorm.DB) {
	if tx.Error != nil {
		log.Fatalf("Failed to seed: %v", tx.Error)
	}
}

func str(s string) string {
	return fmt.Sprintf(`s:%d:"%s";`, len(s), s)
}

func roles() string {
	return `a:2:{` +
		str("um_vip") + `a:2:{` + str("name") + str("VIP") + str("capabilities") + `a:1:{` + str("read") + `b:1;}}` +
		str("um_moderator") + `a:2:{` + str("name") + str("Moderator") + str("capabilities") + `a:2:{` + str("read") + `b:1;` + str("moderate_comments") + `b:1;}}` +
		`}`
}

// restriction cycles through the access modes, including one off-site
// redirect that the migration must refuse.
func restriction(id int) string {
	var fields []string
	add := func(k, v string) { fields = append(fields, str(k)+str(v)) }
	add("_um_custom_access_settings", "1")
	switch id % 4 {
	case 0:
		add("_um_accessible", "1")
	case 1:
		add("_um_accessible", "2")
		add("_um_noaccess_action", "1")
		add("_um_access_redirect", "0")
	case 2:
		add("_um_accessible", "2")
		fields = append(fields, str("_um_access_roles")+`a:1:{`+str("um_vip")+str("1")+`}`)
	case 3:
		add("_um_accessible", "2")
		add("_um_noaccess_action", "1")
		add("_um_access_redirect", "1")
		add("_um_access_redirect_url", "https://offsite.example/join")
	}
	return fmt.Sprintf("a:%d:{%s}", len(fields), strings.Join(fields, ""))
}
