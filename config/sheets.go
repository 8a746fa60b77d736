package config

import (
	"context"
	"log"
	"os"
	"time"

	"childcare/store"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ConnectSheets khởi tạo client Google Sheets từ file service account.
// SHEETS_CREDENTIALS_FILE và SPREADSHEET_ID bắt buộc khi không chạy LOCAL_DEV.
func ConnectSheets(ctx context.Context) (*sheets.Service, store.SheetsConfig, error) {
	credFile := GetEnvDefault("SHEETS_CREDENTIALS_FILE", "credentials.json")
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credFile),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, store.SheetsConfig{}, err
	}

	cfg := store.SheetsConfig{
		SpreadsheetID:    os.Getenv("SPREADSHEET_ID"),
		AttendanceSheet:  GetEnvDefault("ATTENDANCE_SHEET", "AttendanceLog"),
		ChildrenSheet:    GetEnvDefault("CHILDREN_SHEET", "Form responses 1"),
		InstructorsSheet: GetEnvDefault("INSTRUCTORS_SHEET", "Instructors"),
	}
	if timeout := os.Getenv("SHEETS_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if cfg.SpreadsheetID == "" {
		log.Fatalf("SPREADSHEET_ID chưa cấu hình")
	}
	return srv, cfg, nil
}
