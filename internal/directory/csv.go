package directory

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// snapshot is one consistent read of both tables. Snapshots are immutable;
// reloads build a fresh one and swap it in.
type snapshot struct {
	credentials map[string]Credential
	entries     []Entry
	clients     map[string]bool
	// usernames whose client_name is missing from the directory, keyed for
	// per-request ConfigError reporting
	dangling map[string]string
}

func loadSnapshot(loginPath, clientsPath string) (*snapshot, error) {
	creds, err := loadCredentials(loginPath)
	if err != nil {
		return nil, err
	}
	entries, clients, err := loadEntries(clientsPath)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		credentials: creds,
		entries:     entries,
		clients:     clients,
		dangling:    make(map[string]string),
	}
	for _, c := range creds {
		if c.Role == RoleClient && !clients[c.ClientName] {
			snap.dangling[c.Username] = c.ClientName
		}
	}
	return snap, nil
}

func loadCredentials(path string) (map[string]Credential, error) {
	rows, err := readTable(path, []string{"username", "password", "role", "client_name"})
	if err != nil {
		return nil, err
	}

	creds := make(map[string]Credential, len(rows))
	for i, row := range rows {
		line := i + 2 // 1-based, after the header
		c := Credential{
			Username:   row[0],
			Password:   row[1],
			Role:       Role(row[2]),
			ClientName: row[3],
		}
		if c.Username == "" {
			return nil, &ConfigError{Table: path, Line: line, Reason: "empty username"}
		}
		if _, dup := creds[c.Username]; dup {
			return nil, &ConfigError{Table: path, Line: line, Reason: fmt.Sprintf("duplicate username %q", c.Username)}
		}
		switch c.Role {
		case RoleAdmin:
			if c.ClientName != "" {
				return nil, &ConfigError{Table: path, Line: line, Reason: "admin row must have empty client_name"}
			}
		case RoleClient:
			if c.ClientName == "" {
				return nil, &ConfigError{Table: path, Line: line, Reason: "client row must name a client"}
			}
		default:
			return nil, &ConfigError{Table: path, Line: line, Reason: fmt.Sprintf("unknown role %q", c.Role)}
		}
		creds[c.Username] = c
	}
	return creds, nil
}

func loadEntries(path string) ([]Entry, map[string]bool, error) {
	rows, err := readTable(path, []string{"client_name", "location", "booth", "booth_id", "max_occupancy"})
	if err != nil {
		return nil, nil, err
	}

	entries := make([]Entry, 0, len(rows))
	clients := make(map[string]bool)
	boothIDs := make(map[string]bool)
	for i, row := range rows {
		line := i + 2
		e := Entry{
			ClientName: row[0],
			Location:   row[1],
			Booth:      row[2],
			BoothID:    row[3],
		}
		if e.ClientName == "" {
			return nil, nil, &ConfigError{Table: path, Line: line, Reason: "empty client_name"}
		}
		clients[e.ClientName] = true
		if e.Placeholder() {
			// registers the client only; no booth yet
			continue
		}
		if e.Location == "" || e.Booth == "" {
			return nil, nil, &ConfigError{Table: path, Line: line, Reason: "booth rows need both location and booth"}
		}
		if e.BoothID == "" {
			return nil, nil, &ConfigError{Table: path, Line: line, Reason: "empty booth_id"}
		}
		if boothIDs[e.BoothID] {
			return nil, nil, &ConfigError{Table: path, Line: line, Reason: fmt.Sprintf("duplicate booth_id %q", e.BoothID)}
		}
		boothIDs[e.BoothID] = true
		occ, err := strconv.Atoi(row[4])
		if err != nil || occ <= 0 {
			return nil, nil, &ConfigError{Table: path, Line: line, Reason: fmt.Sprintf("max_occupancy %q must be a positive integer", row[4])}
		}
		e.MaxOccupancy = occ
		entries = append(entries, e)
	}
	return entries, clients, nil
}

// readTable reads a comma-separated file, checks the header and returns the
// data rows with fields trimmed.
func readTable(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, &ConfigError{Table: path, Reason: err.Error()}
	}
	if len(records) == 0 {
		return nil, &ConfigError{Table: path, Reason: "missing header row"}
	}

	got := records[0]
	if len(got) != len(header) {
		return nil, &ConfigError{Table: path, Line: 1, Reason: fmt.Sprintf("expected columns %s", strings.Join(header, ","))}
	}
	for i, col := range header {
		if strings.TrimSpace(strings.ToLower(got[i])) != col {
			return nil, &ConfigError{Table: path, Line: 1, Reason: fmt.Sprintf("expected column %q, got %q", col, got[i])}
		}
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, &ConfigError{Table: path, Reason: "ragged row"}
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
