package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateInsertsDocumentAndPages(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	created := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("doc-1", "user-1", "lecture.pdf", "lecture.pdf", "stored/lecture.pdf", 2, created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO pages").
		WithArgs("doc-1", 1, "alpha", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO pages").
		WithArgs("doc-1", 2, "beta", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc := Document{
		ID:         "doc-1",
		UserID:     "user-1",
		FileName:   "lecture.pdf",
		StorageKey: "stored/lecture.pdf",
		CreatedAt:  created,
		Pages: []Page{
			{DocumentID: "doc-1", Number: 1, Text: "alpha"},
			{DocumentID: "doc-1", Number: 2, Text: "beta"},
		},
	}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdatePageNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE pages").
		WithArgs("text", "audio/doc-1/page-9.mp3", "doc-1", 9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdatePage(context.Background(), Page{
		DocumentID:  "doc-1",
		Number:      9,
		Explanation: "text",
		AudioRef:    "audio/doc-1/page-9.mp3",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDScansStorageKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	created := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, user_id, file_name, original_filename, storage_key, page_count, created_at").
		WithArgs("user-1", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "file_name", "original_filename", "storage_key", "page_count", "created_at"}).
			AddRow("doc-1", "user-1", "lecture.pdf", "lecture.pdf", "stored/lecture.pdf", 1, created))
	mock.ExpectQuery("SELECT document_id, page_number, text, explanation, audio_ref").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"document_id", "page_number", "text", "explanation", "audio_ref"}).
			AddRow("doc-1", 1, "alpha", "", ""))

	doc, err := repo.GetByID(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.StorageKey != "stored/lecture.pdf" {
		t.Fatalf("StorageKey = %q", doc.StorageKey)
	}
	if len(doc.Pages) != 1 || doc.Pages[0].Number != 1 {
		t.Fatalf("unexpected pages: %+v", doc.Pages)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDScopedToOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT id, user_id, file_name, original_filename, storage_key, page_count, created_at").
		WithArgs("intruder", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "file_name", "original_filename", "storage_key", "page_count", "created_at"}))

	_, err = repo.GetByID(context.Background(), "intruder", "doc-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
