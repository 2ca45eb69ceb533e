package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/ManuelReschke/BookFox/internal/pkg/env"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	m, err := migrate.New("file://migrations", databaseURL())
	if err != nil {
		log.Fatalf("Fehler beim Initialisieren der Migration: %v", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Printf("Fehler beim Schließen der Migrationsressourcen: %v, %v", sourceErr, dbErr)
		}
	}()

	switch os.Args[1] {
	case "up":
		runUp(m)
	case "down":
		runDown(m)
	case "goto":
		runGoto(m, os.Args[2:])
	case "status":
		runStatus(m)
	default:
		printUsage()
		os.Exit(1)
	}
}

func databaseURL() string {
	user := env.GetEnv("DB_USER", "bookfox")
	host := env.GetEnv("DB_HOST", "db")
	port := env.GetEnv("DB_PORT", "3306")
	name := env.GetEnv("DB_NAME", "bookfox_db")

	log.Printf("Verbinde mit Datenbank: %s@%s:%s/%s", user, host, port, name)

	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		user, env.GetEnv("DB_PASSWORD", "bookfox"), host, port, name)
}

func runUp(m *migrate.Migrate) {
	err := m.Up()
	switch {
	case err == migrate.ErrNoChange:
		log.Println("Keine Änderungen: Datenbank ist bereits auf dem neuesten Stand")
	case err != nil:
		log.Fatalf("Fehler beim Ausführen der Migrationen: %v", err)
	default:
		log.Println("Migrationen erfolgreich ausgeführt")
	}
}

func runDown(m *migrate.Migrate) {
	if err := m.Steps(-1); err != nil {
		log.Fatalf("Fehler beim Zurückrollen der letzten Migration: %v", err)
	}
	log.Println("Letzte Migration erfolgreich zurückgerollt")
}

func runGoto(m *migrate.Migrate, args []string) {
	if len(args) < 1 {
		log.Fatalf("Bitte geben Sie eine Versionsnummer an")
	}
	version, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		log.Fatalf("Ungültige Versionsnummer: %v", err)
	}

	err = m.Migrate(uint(version))
	switch {
	case err == migrate.ErrNoChange:
		log.Printf("Keine Änderungen: Datenbank ist bereits auf Version %d", version)
	case err != nil:
		log.Fatalf("Fehler beim Migrieren zur Version %d: %v", version, err)
	default:
		log.Printf("Migration zur Version %d erfolgreich", version)
	}
}

func runStatus(m *migrate.Migrate) {
	version, dirty, err := m.Version()
	if err == migrate.ErrNilVersion {
		log.Println("Keine Migrationen wurden bisher ausgeführt")
		return
	}
	if err != nil {
		log.Fatalf("Fehler beim Abrufen der Migrationsversion: %v", err)
	}

	dirtyStatus := ""
	if dirty {
		dirtyStatus = " (dirty)"
	}
	log.Printf("Aktuelle Migrationsversion: %d%s", version, dirtyStatus)
}

func printUsage() {
	fmt.Println("Verwendung: go run cmd/migrate/main.go [command]")
	fmt.Println("Verfügbare Befehle:")
	fmt.Println("  up     - Führe alle ausstehenden Migrationen aus")
	fmt.Println("  down   - Rolle die letzte Migration zurück")
	fmt.Println("  goto N - Migriere zur Version N")
	fmt.Println("  status - Zeige aktuelle Migrationsversion an")
}
