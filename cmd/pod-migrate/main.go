package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/memri/pod/pkg/db"
)

var (
	dbRoot = flag.String("db-root", "./data/db", "Pod owner database directory")
	dryRun = flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	backup = flag.Bool("backup", true, "Back up each owner database file before migrating it")
	dbKey  = flag.String("key", "", "Page-encryption key applied to every owner database opened this run (leave empty for unencrypted databases; encrypted owners must be migrated one invocation at a time)")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Pod Database Migration Tool")
	log.Println("===========================")
	log.Printf("Database root: %s", *dbRoot)
	log.Printf("Dry run: %v", *dryRun)

	entries, err := os.ReadDir(*dbRoot)
	if err != nil {
		log.Fatalf("failed to read db root %s: %v", *dbRoot, err)
	}

	var dbFiles []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".db") {
			continue
		}
		dbFiles = append(dbFiles, filepath.Join(*dbRoot, e.Name()))
	}

	log.Printf("Found %d owner database(s)", len(dbFiles))
	if *dryRun {
		for _, path := range dbFiles {
			log.Printf("[DRY RUN] would migrate %s", path)
		}
		log.Println("\nDry run completed. No changes made.")
		return
	}

	migrated := 0
	for _, path := range dbFiles {
		if *backup {
			backupPath := path + ".backup"
			log.Printf("backing up %s -> %s", path, backupPath)
			if err := copyFile(path, backupPath); err != nil {
				log.Fatalf("failed to back up %s: %v", path, err)
			}
		}

		if err := migrateOne(path); err != nil {
			log.Fatalf("failed to migrate %s: %v", path, err)
		}
		migrated++
		log.Printf("migrated %s", path)
	}

	log.Printf("\nMigration completed successfully: %d/%d databases migrated.", migrated, len(dbFiles))
}

func migrateOne(path string) error {
	engine, err := db.Open(path, *dbKey)
	if err != nil {
		return err
	}
	defer engine.Close()
	return db.Migrate(engine)
}

func copyFile(src, dst string) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, input, 0o600)
}
