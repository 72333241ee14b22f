package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadScheduleCSV(t *testing.T) {
	data := `name,wagons,locomotives,length_m,electric,depot,arrival,departure,category,locomotive_side
IC3-01,4,1,,false,Glostrup,2024-05-01T10:00:00Z,2024-05-01T14:00:00Z,storage,left
ER-02,,,180,true,Naestved,2024-05-01T08:00:00Z,2024-05-02T08:00:00Z,testing,
`
	path := filepath.Join(t.TempDir(), "schedule.csv")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := readScheduleCSV(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	first := records[0]
	if first.Name != "IC3-01" || first.Wagons != 4 || first.Locomotives != 1 || first.Depot != "Glostrup" {
		t.Fatalf("first record wrong: %+v", first)
	}
	if !first.Arrival.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("arrival wrong: %v", first.Arrival)
	}
	second := records[1]
	if second.LengthM != 180 || !second.Electric || second.Category != "testing" {
		t.Fatalf("second record wrong: %+v", second)
	}
}

func TestReadScheduleCSVRejectsBadTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.csv")
	data := "X-01,1,0,,false,Glostrup,yesterday,2024-05-01T14:00:00Z\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := readScheduleCSV(path); err == nil {
		t.Fatal("bad arrival must fail")
	}
}
