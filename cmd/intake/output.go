package main

import (
	"fmt"
	"os"
	"strings"

	"intake/internal/api"
	"intake/internal/format"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func writeStructured(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeRecordDetail(record api.RecordDetail) error {
	lines := []string{
		fmt.Sprintf("token: %s", record.Token),
		fmt.Sprintf("timestamp: %s", record.Timestamp),
	}
	lines = append(lines, recordLines(record.RecordData)...)
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func recordLines(data api.RecordData) []string {
	lines := []string{
		fmt.Sprintf("name: %s", data.Name),
		fmt.Sprintf("age: %s", data.Age),
		fmt.Sprintf("gender: %s", data.Gender),
	}
	if data.Notes != "" {
		lines = append(lines, fmt.Sprintf("notes: %s", data.Notes))
	}
	for _, group := range []struct {
		label string
		links []string
	}{
		{"photos", data.Photos},
		{"videos", data.Videos},
		{"documents", data.Documents},
	} {
		if len(group.links) == 0 {
			continue
		}
		lines = append(lines, group.label+":")
		for _, link := range group.links {
			lines = append(lines, "  - "+link)
		}
	}
	return lines
}
