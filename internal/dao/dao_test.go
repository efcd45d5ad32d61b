package dao

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"dictophone-api/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Folder{}, &model.Record{}, &model.TranscriptionSegment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestEnsureDefaultsSeedsOnce(t *testing.T) {
	db := openTestDB(t)
	folders := NewFolderDAO(db)

	if err := folders.EnsureDefaults("user-1"); err != nil {
		t.Fatalf("ensure defaults: %v", err)
	}
	if err := folders.EnsureDefaults("user-1"); err != nil {
		t.Fatalf("ensure defaults again: %v", err)
	}

	got, err := folders.FindByUser("user-1")
	if err != nil {
		t.Fatalf("find by user: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 default folders, got %d", len(got))
	}
	for _, f := range got {
		if !f.IsDefault {
			t.Fatalf("expected folder %q to be flagged default", f.Name)
		}
	}

	other, err := folders.FindByUser("user-2")
	if err != nil {
		t.Fatalf("find other user: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no folders for another user, got %d", len(other))
	}
}

func TestFolderUpdateBumpsUpdatedAt(t *testing.T) {
	db := openTestDB(t)
	folders := NewFolderDAO(db)

	folder, err := folders.Create("user-1", "Meetings", nil, false)
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}

	before := folder.UpdatedAt
	time.Sleep(10 * time.Millisecond)

	desc := "weekly standups"
	updated, err := folders.Update(folder.ID, "Standups", &desc)
	if err != nil {
		t.Fatalf("update folder: %v", err)
	}

	if updated.Name != "Standups" || updated.Description == nil || *updated.Description != desc {
		t.Fatalf("unexpected folder after update: %+v", updated)
	}
	if !updated.UpdatedAt.After(before) {
		t.Fatalf("expected updated_at to advance, before=%v after=%v", before, updated.UpdatedAt)
	}
}

func seedRecords(t *testing.T, db *gorm.DB, userID string, n int) int64 {
	t.Helper()

	folders := NewFolderDAO(db)
	records := NewRecordDAO(db)

	folder, err := folders.Create(userID, "Inbox", nil, false)
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		record := model.Record{
			FolderID: &folder.ID,
			Title:    fmt.Sprintf("Recording %02d", i),
			Datetime: base.Add(time.Duration(i) * time.Hour),
			Duration: 60,
			Category: model.CategoryWork,
			AudioURL: fmt.Sprintf("http://blobs/bucket/audio/%d.m4a", i),
		}
		if err := records.Create(&record); err != nil {
			t.Fatalf("create record %d: %v", i, err)
		}
	}
	return folder.ID
}

func TestSearchPagination(t *testing.T) {
	db := openTestDB(t)
	records := NewRecordDAO(db)
	seedRecords(t, db, "user-1", 25)

	page0, total, err := records.Search("user-1", "", nil, 0, 10)
	if err != nil {
		t.Fatalf("search page 0: %v", err)
	}
	if total != 25 {
		t.Fatalf("expected total 25, got %d", total)
	}
	if len(page0) != 10 {
		t.Fatalf("expected 10 records on page 0, got %d", len(page0))
	}

	// Newest first.
	if !page0[0].Datetime.After(page0[1].Datetime) {
		t.Fatalf("expected datetime descending, got %v then %v", page0[0].Datetime, page0[1].Datetime)
	}

	page2, _, err := records.Search("user-1", "", nil, 2, 10)
	if err != nil {
		t.Fatalf("search page 2: %v", err)
	}
	if len(page2) != 5 {
		t.Fatalf("expected 5 records on page 2, got %d", len(page2))
	}
}

func TestSearchFiltersOwnerTextAndFolder(t *testing.T) {
	db := openTestDB(t)
	records := NewRecordDAO(db)

	mine := seedRecords(t, db, "user-1", 3)
	seedRecords(t, db, "user-2", 4)

	_, total, err := records.Search("user-1", "", nil, 0, 20)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected only own records, got total %d", total)
	}

	matches, total, err := records.Search("user-1", "recording 01", nil, 0, 20)
	if err != nil {
		t.Fatalf("search with text: %v", err)
	}
	if total != 1 || len(matches) != 1 || matches[0].Title != "Recording 01" {
		t.Fatalf("expected case-insensitive title match, got total=%d matches=%+v", total, matches)
	}

	otherFolder := int64(999)
	_, total, err = records.Search("user-1", "", &otherFolder, 0, 20)
	if err != nil {
		t.Fatalf("search with folder filter: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected no records in unknown folder, got %d", total)
	}

	_, total, err = records.Search("user-1", "", &mine, 0, 20)
	if err != nil {
		t.Fatalf("search with own folder: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 records in own folder, got %d", total)
	}
}

func TestUserStatistics(t *testing.T) {
	db := openTestDB(t)
	records := NewRecordDAO(db)
	seedRecords(t, db, "user-1", 4)

	count, err := records.CountByUser("user-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 records, got %d", count)
	}

	seconds, err := records.SumDurationByUser("user-1")
	if err != nil {
		t.Fatalf("sum duration: %v", err)
	}
	if seconds != 240 {
		t.Fatalf("expected 240 seconds total, got %d", seconds)
	}

	seconds, err = records.SumDurationByUser("nobody")
	if err != nil {
		t.Fatalf("sum duration for unknown user: %v", err)
	}
	if seconds != 0 {
		t.Fatalf("expected 0 for unknown user, got %d", seconds)
	}
}

func TestSegmentsOrderedByStart(t *testing.T) {
	db := openTestDB(t)
	transcriptions := NewTranscriptionDAO(db)

	_, err := transcriptions.CreateBatch(7, []model.TranscriptionSegmentInput{
		{Start: 1.2, End: 2.5, Text: "b"},
		{Start: 0, End: 1.2, Text: "a"},
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}

	segments, err := transcriptions.FindByRecordID(7)
	if err != nil {
		t.Fatalf("find segments: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Text != "a" || segments[1].Text != "b" {
		t.Fatalf("expected segments ordered by start, got %q then %q", segments[0].Text, segments[1].Text)
	}
}

func TestDeleteCascadeRemovesSegments(t *testing.T) {
	db := openTestDB(t)
	records := NewRecordDAO(db)
	transcriptions := NewTranscriptionDAO(db)
	folderID := seedRecords(t, db, "user-1", 1)

	list, err := records.FindByFolderID(folderID)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected 1 record in folder, got %d (err %v)", len(list), err)
	}
	recordID := list[0].ID

	if _, err := transcriptions.CreateBatch(recordID, []model.TranscriptionSegmentInput{{Start: 0, End: 1, Text: "x"}}); err != nil {
		t.Fatalf("create batch: %v", err)
	}

	if err := records.DeleteCascade(recordID); err != nil {
		t.Fatalf("delete cascade: %v", err)
	}

	if _, err := records.FindByID(recordID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	segments, err := transcriptions.FindByRecordID(recordID)
	if err != nil {
		t.Fatalf("find segments: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected no segments after cascade, got %d", len(segments))
	}
}
