package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ExportService renders admin reports as Excel workbooks.
type ExportService struct {
	users *UserService
	now   func() time.Time
	log   zerolog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(users *UserService, log zerolog.Logger) *ExportService {
	return &ExportService{
		users: users,
		now:   time.Now,
		log:   log.With().Str("component", "export_service").Logger(),
	}
}

var progressHeader = []string{
	"NIS", "Nama", "IP Terikat", "Waktu Terikat",
	"Total Latihan", "Jawaban Benar", "Akurasi (%)",
	"Jumlah Ujian", "Nilai Ujian Terakhir", "Kode Hari Ini",
}

// ProgressWorkbook builds the roster report: one row per student with their
// practice and exam statistics. Returns the serialized .xlsx bytes and a
// suggested file name.
func (s *ExportService) ProgressWorkbook(ctx context.Context) ([]byte, string, error) {
	rows, err := s.users.Progress(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Progres Siswa"
	f.SetSheetName("Sheet1", sheet)

	for col, title := range progressHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, "", fmt.Errorf("write header: %w", err)
		}
	}

	for i, row := range rows {
		boundIP := ""
		if row.BoundIP != nil {
			boundIP = *row.BoundIP
		}
		boundTime := ""
		if row.BoundTime != nil {
			boundTime = row.BoundTime.Format("2006-01-02 15:04:05")
		}
		lastScore := ""
		if row.LastExamScore != nil {
			lastScore = fmt.Sprintf("%.1f", *row.LastExamScore)
		}
		hasCode := "Belum"
		if row.HasCode {
			hasCode = "Sudah"
		}

		values := []interface{}{
			row.StudentID, row.Name, boundIP, boundTime,
			row.TotalQuestions, row.CorrectQuestions, row.Accuracy,
			row.ExamCount, lastScore, hasCode,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", fmt.Errorf("write row %d: %w", i+2, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("serialize workbook: %w", err)
	}

	name := fmt.Sprintf("progres-siswa-%s.xlsx", s.now().Format("20060102"))
	s.log.Info().Int("students", len(rows)).Str("file", name).Msg("Progress workbook exported")
	return buf.Bytes(), name, nil
}
